package openai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/openai/openai-go/v3"

	"iris/internal/registry"
	"iris/internal/services"
)

const sentimentSystemPrompt = "You classify the sentiment of transcribed speech. " +
	"Respond with a JSON object of the form {\"label\": \"positive|neutral|negative\", \"score\": 0.0} " +
	"where score is your confidence between 0 and 1. Respond with JSON only, no prose."

// SentimentPlugin scores transcript sentiment through a chat model that is
// instructed to answer with a small JSON document.
type SentimentPlugin struct {
	base
}

// NewSentimentPlugin constructs the chat-backed sentiment plugin.
func NewSentimentPlugin(cfg Config) *SentimentPlugin {
	return &SentimentPlugin{base: newBase(cfg)}
}

func (p *SentimentPlugin) Name() string                { return "openai-sentiment" }
func (p *SentimentPlugin) Category() registry.Category { return registry.CategorySentiment }
func (p *SentimentPlugin) Priority() int               { return 10 }

func (p *SentimentPlugin) Probe(ctx context.Context) error {
	return p.probeModel(ctx, p.cfg.SentimentModel)
}

func (p *SentimentPlugin) Execute(ctx context.Context, input registry.Input) (registry.Result, error) {
	text := strings.TrimSpace(input.Prompt)
	if text == "" {
		text = strings.TrimSpace(string(input.Payload))
	}
	if text == "" {
		return registry.Result{}, services.Wrap(services.ErrInput, p.Name(), "execute", "no text to classify", nil)
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.cfg.SentimentModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(sentimentSystemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return registry.Result{}, services.Wrap(services.ErrProvider, p.Name(), "classify", "", err)
	}
	if len(resp.Choices) == 0 {
		return registry.Result{}, services.Wrap(services.ErrProvider, p.Name(), "classify", "empty choices", nil)
	}
	label, score, err := parseSentiment(resp.Choices[0].Message.Content)
	if err != nil {
		return registry.Result{}, services.Wrap(services.ErrProvider, p.Name(), "classify", "unparseable response", err)
	}
	return registry.Result{Label: label, Score: score}, nil
}

// parseSentiment accepts the raw model answer, tolerating markdown fences
// around the JSON document.
func parseSentiment(content string) (string, float64, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var payload struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return "", 0, err
	}
	label := strings.ToLower(strings.TrimSpace(payload.Label))
	switch label {
	case "positive", "neutral", "negative":
	default:
		label = "neutral"
	}
	score := payload.Score
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return label, score, nil
}
