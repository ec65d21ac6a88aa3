package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"iris/internal/api"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var (
		typeHint   string
		mimeType   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Process a media file through the analysis pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			orch, _, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}
			defer orch.Close()

			meta := map[string]string{"filename": filepath.Base(args[0])}
			if typeHint != "" {
				meta["type"] = typeHint
			}
			if mimeType != "" {
				meta["mimeType"] = mimeType
			}

			response, err := orch.ProcessContent(cmd.Context(), payload, meta)
			if err != nil {
				return err
			}

			if jsonOutput {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(response)
			}
			renderProcessResponse(cmd, response)
			return nil
		},
	}

	cmd.Flags().StringVar(&typeHint, "type", "", "Explicit media type (video, audio, image)")
	cmd.Flags().StringVar(&mimeType, "mime-type", "", "Declared MIME type")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the full result as JSON")
	return cmd
}

func renderProcessResponse(cmd *cobra.Command, response *api.ProcessResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %s (%s) processed in %dms\n\n", response.JobID, response.MediaType, response.ProcessingTimeMS)

	rows := [][]string{}
	addRow := func(field, value string) {
		rows = append(rows, []string{field, value})
	}

	results := response.Results
	if results.Description != nil {
		addRow("Description", *results.Description)
	}
	if results.SceneSummary != nil {
		addRow("Scenes", *results.SceneSummary)
	}
	if results.Transcription != nil {
		addRow("Transcription", truncate(*results.Transcription, 120))
	}
	if results.OCRText != nil {
		addRow("OCR Text", truncate(*results.OCRText, 120))
	}
	if len(results.Objects) > 0 {
		labels := make([]string, len(results.Objects))
		for i, obj := range results.Objects {
			labels[i] = fmt.Sprintf("%s (%.0f%%)", obj.Label, obj.Confidence*100)
		}
		addRow("Objects", strings.Join(labels, ", "))
	}
	if results.Sentiment != nil {
		addRow("Sentiment", fmt.Sprintf("%s (%.2f)", results.Sentiment.Label, results.Sentiment.Score))
	}
	if len(results.Speakers) > 0 {
		addRow("Speakers", strings.Join(results.Speakers, ", "))
	}
	if len(results.Tags) > 0 {
		addRow("Tags", strings.Join(results.Tags, ", "))
	}
	if len(results.Thumbnails) > 0 {
		addRow("Thumbnails", strconv.Itoa(len(results.Thumbnails)))
	}
	if results.Quality != nil {
		addRow("Quality", fmt.Sprintf("%.2f (%dx%d)", results.Quality.Score, results.Quality.Width, results.Quality.Height))
	}
	metaKeys := make([]string, 0, len(results.Metadata))
	for key := range results.Metadata {
		metaKeys = append(metaKeys, key)
	}
	sort.Strings(metaKeys)
	for _, key := range metaKeys {
		addRow("meta."+key, results.Metadata[key])
	}

	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))

	if len(response.Warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, warning := range response.Warnings {
			fmt.Fprintf(out, "  - %s\n", warning)
		}
	}
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "…"
}
