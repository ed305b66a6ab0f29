package provider

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/kdduha/image-captioner/internal/config"
	"github.com/kdduha/image-captioner/internal/models"
)

const anthropicName = "anthropic"

const stopReasonRefusal = anthropic.StopReason("refusal")

type Anthropic struct {
	client    anthropic.Client
	modelName string
	maxTokens int64
	hasKey    bool
}

func NewAnthropic(cfg config.AnthropicConfig, httpClient *http.Client) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		modelName: cfg.Model,
		maxTokens: cfg.MaxTokens,
		hasKey:    cfg.APIKey != "",
	}
}

func (a *Anthropic) Name() string {
	return anthropicName
}

func (a *Anthropic) GenerateCaption(ctx context.Context, req *models.GenerationRequest) (string, error) {
	if !a.hasKey {
		return "", missingCredential(anthropicName)
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.modelName),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(req.MIMEType, base64.StdEncoding.EncodeToString(req.Image)),
				anthropic.NewTextBlock(req.Prompt),
			),
		},
	})
	if err != nil {
		return "", transportFailure(anthropicName, err)
	}
	if msg == nil {
		return "", malformedResponse(anthropicName, "empty response")
	}

	if msg.StopReason == stopReasonRefusal {
		return "", &Error{Provider: anthropicName, Reason: ReasonContentBlocked, BlockReason: string(msg.StopReason)}
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() > 0 {
		return b.String(), nil
	}

	if msg.StopReason == anthropic.StopReasonMaxTokens {
		return "", &Error{Provider: anthropicName, Reason: ReasonEarlyStop, FinishReason: string(msg.StopReason)}
	}
	return "", malformedResponse(anthropicName, "no text content in response")
}
