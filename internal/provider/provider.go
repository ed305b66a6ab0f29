package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kdduha/image-captioner/internal/config"
	"github.com/kdduha/image-captioner/internal/models"
)

// CaptionProvider turns an image and a prompt into caption text with a single
// call to an external multimodal model.
type CaptionProvider interface {
	Name() string
	GenerateCaption(ctx context.Context, req *models.GenerationRequest) (string, error)
}

type Reason string

const (
	ReasonMissingCredential Reason = "missing_credential"
	ReasonTransportFailure  Reason = "transport_failure"
	ReasonMalformedResponse Reason = "malformed_response"
	ReasonContentBlocked    Reason = "content_blocked"
	ReasonEarlyStop         Reason = "early_stop"
)

const failedMessage = "Failed to get caption from AI service."

// Error is the failure of a caption provider call.
type Error struct {
	Provider     string
	Reason       Reason
	BlockReason  string
	FinishReason string
	Err          error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Reason)
	if e.BlockReason != "" {
		msg += " (block reason " + e.BlockReason + ")"
	}
	if e.FinishReason != "" {
		msg += " (finish reason " + e.FinishReason + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the client-facing description of the failure.
func (e *Error) Message() string {
	switch e.Reason {
	case ReasonMissingCredential:
		return "Server error: API key is missing."
	case ReasonTransportFailure:
		if e.Err != nil {
			return "Server error: " + e.Err.Error()
		}
		return "Server error: provider request failed."
	}

	msg := failedMessage
	if e.BlockReason != "" {
		msg += " Reason: " + e.BlockReason
	} else if e.FinishReason != "" {
		msg += " Finish Reason: " + e.FinishReason
	}
	return msg
}

// AsError extracts a provider failure from an error chain.
func AsError(err error) (*Error, bool) {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr, true
	}
	return nil, false
}

func missingCredential(name string) *Error {
	return &Error{Provider: name, Reason: ReasonMissingCredential}
}

func transportFailure(name string, err error) *Error {
	return &Error{Provider: name, Reason: ReasonTransportFailure, Err: err}
}

func malformedResponse(name string, detail string) *Error {
	return &Error{Provider: name, Reason: ReasonMalformedResponse, Err: errors.New(detail)}
}

// New constructs the provider selected by cfg. The client is built once and
// shared by every request.
func New(ctx context.Context, cfg *config.Config, httpClient *http.Client) (CaptionProvider, error) {
	switch cfg.Caption.Provider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.OpenAI, httpClient), nil
	case config.ProviderAnthropic:
		return NewAnthropic(cfg.Claude, httpClient), nil
	case config.ProviderGemini:
		g, err := NewGemini(ctx, cfg.Gemini, httpClient)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported caption provider %q", cfg.Caption.Provider)
	}
}
