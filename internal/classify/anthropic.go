package classify

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// Completer produces a short text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// anthropicCompleter backs Completer with the Anthropic Messages API.
type anthropicCompleter struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewAnthropicCompleter builds a Completer over the official SDK.
func NewAnthropicCompleter(apiKey, model string, maxTokens int64) Completer {
	if maxTokens <= 0 {
		maxTokens = 64
	}
	return &anthropicCompleter{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (a *anthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := a.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "classify: anthropic message")
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", eris.New("classify: empty completion")
}
