package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kdduha/image-captioner/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{missingCredential("gemini"), "Server error: API key is missing."},
		{transportFailure("gemini", errors.New("timeout")), "Server error: timeout"},
		{malformedResponse("gemini", "empty"), "Failed to get caption from AI service."},
		{
			&Error{Provider: "gemini", Reason: ReasonContentBlocked, BlockReason: "SAFETY"},
			"Failed to get caption from AI service. Reason: SAFETY",
		},
		{
			&Error{Provider: "gemini", Reason: ReasonEarlyStop, FinishReason: "MAX_TOKENS"},
			"Failed to get caption from AI service. Finish Reason: MAX_TOKENS",
		},
	}

	for _, tc := range cases {
		t.Run(string(tc.err.Reason), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Message())
		})
	}
}

func TestAsErrorThroughWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	wrapped := fmt.Errorf("caption: %w", transportFailure("openai", cause))

	pErr, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "openai", pErr.Provider)
	assert.ErrorIs(t, wrapped, cause)

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
}

func TestNewSelectsProvider(t *testing.T) {
	for _, name := range []string{config.ProviderGemini, config.ProviderOpenAI, config.ProviderAnthropic} {
		t.Run(name, func(t *testing.T) {
			cfg := &config.Config{Caption: config.CaptionConfig{Provider: name}}
			p, err := New(context.Background(), cfg, nil)
			require.NoError(t, err)
			assert.Equal(t, name, p.Name())
		})
	}

	_, err := New(context.Background(), &config.Config{Caption: config.CaptionConfig{Provider: "llama"}}, nil)
	assert.Error(t, err)
}
