package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kdduha/image-captioner/internal/config"
	"github.com/kdduha/image-captioner/internal/models"
	"google.golang.org/genai"
)

const geminiName = "gemini"

// finish reasons reported when generation was cut by safety filtering
var geminiSafetyFinishes = map[genai.FinishReason]bool{
	genai.FinishReason("SAFETY"):             true,
	genai.FinishReason("PROHIBITED_CONTENT"): true,
	genai.FinishReason("BLOCKLIST"):          true,
	genai.FinishReason("SPII"):               true,
	genai.FinishReason("IMAGE_SAFETY"):       true,
}

type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

type Gemini struct {
	models contentGenerator
	model  string
}

// NewGemini builds the Gemini client. Without an API key no client is created
// and every call fails with a missing credential.
func NewGemini(ctx context.Context, cfg config.GeminiConfig, httpClient *http.Client) (*Gemini, error) {
	g := &Gemini{model: cfg.Model}
	if cfg.APIKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g.models = client.Models
	return g, nil
}

func (g *Gemini) Name() string {
	return geminiName
}

func (g *Gemini) GenerateCaption(ctx context.Context, req *models.GenerationRequest) (string, error) {
	if g.models == nil {
		return "", missingCredential(geminiName)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(req.Prompt),
			genai.NewPartFromBytes(req.Image, req.MIMEType),
		}, genai.RoleUser),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", transportFailure(geminiName, err)
	}
	return interpretGemini(resp)
}

func interpretGemini(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", malformedResponse(geminiName, "empty response")
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", &Error{
			Provider:    geminiName,
			Reason:      ReasonContentBlocked,
			BlockReason: string(fb.BlockReason),
		}
	}

	if text, ok := geminiText(resp); ok {
		return text, nil
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		finish := resp.Candidates[0].FinishReason
		switch {
		case geminiSafetyFinishes[finish]:
			return "", &Error{Provider: geminiName, Reason: ReasonContentBlocked, FinishReason: string(finish)}
		case finish != "" && finish != genai.FinishReasonStop:
			return "", &Error{Provider: geminiName, Reason: ReasonEarlyStop, FinishReason: string(finish)}
		}
	}

	return "", malformedResponse(geminiName, "no text in response")
}

func geminiText(resp *genai.GenerateContentResponse) (string, bool) {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", false
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String(), b.Len() > 0
}
