package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/kdduha/image-captioner/internal/config"
	"github.com/kdduha/image-captioner/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const openAIName = "openai"

type OpenAI struct {
	client    openai.Client
	modelName string
	hasKey    bool
}

func NewOpenAI(cfg config.OpenAIConfig, httpClient *http.Client) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &OpenAI{
		client:    openai.NewClient(opts...),
		modelName: cfg.Model,
		hasKey:    cfg.APIKey != "",
	}
}

func (o *OpenAI) Name() string {
	return openAIName
}

func (o *OpenAI) GenerateCaption(ctx context.Context, req *models.GenerationRequest) (string, error) {
	if !o.hasKey {
		return "", missingCredential(openAIName)
	}

	resp, err := o.client.Chat.Completions.New(ctx, o.buildRequest(req))
	if err != nil {
		return "", transportFailure(openAIName, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", malformedResponse(openAIName, "no choices in response")
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", &Error{Provider: openAIName, Reason: ReasonContentBlocked, BlockReason: choice.Message.Refusal}
	}
	if choice.Message.Content != "" {
		return choice.Message.Content, nil
	}

	switch choice.FinishReason {
	case "content_filter":
		return "", &Error{Provider: openAIName, Reason: ReasonContentBlocked, FinishReason: choice.FinishReason}
	case "length":
		return "", &Error{Provider: openAIName, Reason: ReasonEarlyStop, FinishReason: choice.FinishReason}
	}
	return "", malformedResponse(openAIName, "empty message content")
}

func (o *OpenAI) buildRequest(req *models.GenerationRequest) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(req.Prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL(req.MIMEType, req.Image),
				}),
			}),
		},
	}
}

func dataURL(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
