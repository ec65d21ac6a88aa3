package services_test

import (
	"errors"
	"strings"
	"testing"

	"iris/internal/services"
)

func TestWrapTagsAndChains(t *testing.T) {
	underlying := errors.New("connection reset")
	err := services.Wrap(services.ErrProvider, "ocr", "execute", "request failed", underlying)

	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("marker lost: %v", err)
	}
	if !errors.Is(err, underlying) {
		t.Fatalf("cause lost: %v", err)
	}
	for _, fragment := range []string{"ocr", "execute", "request failed"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("error %q missing %q", err, fragment)
		}
	}
}

func TestWrapDefaultsToProviderMarker(t *testing.T) {
	err := services.Wrap(nil, "stage", "op", "", nil)
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("nil marker should default to provider, got %v", err)
	}
}

func TestWrapWithoutContext(t *testing.T) {
	err := services.Wrap(services.ErrTimeout, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("error = %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"input", services.Wrap(services.ErrInput, "validation", "", "bad payload", nil), true},
		{"configuration", services.Wrap(services.ErrConfiguration, "", "", "missing key", nil), true},
		{"provider", services.Wrap(services.ErrProvider, "ocr", "", "500", nil), false},
		{"unavailable", services.Wrap(services.ErrUnavailable, "ocr", "", "exhausted", nil), false},
		{"plain", errors.New("whatever"), false},
		{"nil", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsFatal(tc.err); got != tc.want {
				t.Fatalf("IsFatal = %v, want %v", got, tc.want)
			}
		})
	}
}
