package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"

	"navi/internal/dialogue"
)

const systemPrompt = `
You are a sentiment scorer for a voice assistant.
Your ONLY job is to rate the emotional polarity of the user's utterance.

RULES:
1. Do NOT converse.
2. Do NOT answer the utterance.
3. Output ONLY JSON. No markdown.

OUTPUT FORMAT:
{"polarity": <number between -1.0 and 1.0>}

SCALE:
- 1.0  = very positive (delighted, grateful, excited)
- 0.0  = no emotional content at all
- -1.0 = very negative (sad, angry, hopeless)

Be strict and minimal.
`

// OpenAI asks a chat model for the polarity. Use temperature 0 and wrap it
// in a Memo when the same text must always score the same.
type OpenAI struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAI(client openai.Client, model string) *OpenAI {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &OpenAI{client: client, model: model}
}

type verdict struct {
	Polarity *float64 `json:"polarity"`
}

func (o *OpenAI) Polarity(ctx context.Context, text string) (float64, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
		Model:       o.model,
		Temperature: openai.Float(0),
	})
	if err != nil {
		return 0, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("no choices in response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return 0, fmt.Errorf("empty message content")
	}

	log.Debug("Scored", "data", content)

	p, err := parseVerdict(content)
	if err != nil {
		return 0, err
	}
	return p, nil
}

func parseVerdict(content string) (float64, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var v verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &v); err != nil {
		return 0, fmt.Errorf("unmarshal verdict: %w (raw: %s)", err, content)
	}
	if v.Polarity == nil {
		return 0, fmt.Errorf("verdict has no polarity (raw: %s)", content)
	}

	return dialogue.Clamp(*v.Polarity), nil
}
