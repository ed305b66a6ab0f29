package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kdduha/image-captioner/internal/metrics"
	"github.com/kdduha/image-captioner/internal/models"
	"github.com/kdduha/image-captioner/internal/provider"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const tracerName = "github.com/kdduha/image-captioner/internal/service"

type CaptionService struct {
	logger   *zap.Logger
	provider provider.CaptionProvider
}

func NewCaptionService(logger *zap.Logger, p provider.CaptionProvider) *CaptionService {
	return &CaptionService{
		logger:   logger,
		provider: p,
	}
}

func (s *CaptionService) ProviderName() string {
	return s.provider.Name()
}

// Caption reads the staged image and asks the provider for captions in the
// given style. The provider text is returned verbatim.
func (s *CaptionService) Caption(
	ctx context.Context,
	img *models.UploadedImage,
	mimeType string,
	style models.CaptionStyle,
) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "CaptionService.Caption")
	defer span.End()

	span.SetAttributes(
		attribute.String("caption.style", string(style)),
		attribute.String("caption.provider", s.provider.Name()),
		attribute.String("image.mime_type", mimeType),
		attribute.Int64("image.size", img.Size),
	)

	data, err := os.ReadFile(img.Path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read staged image")
		return "", fmt.Errorf("read staged image: %w", err)
	}

	req := &models.GenerationRequest{
		Prompt:   BuildPrompt(style),
		Image:    data,
		MIMEType: mimeType,
	}

	s.logger.Debug("requesting captions",
		zap.String("provider", s.provider.Name()),
		zap.String("style", string(style)),
		zap.String("mime_type", mimeType),
		zap.Int("bytes", len(data)),
	)

	start := time.Now()
	text, err := s.provider.GenerateCaption(ctx, req)
	elapsed := time.Since(start)

	outcome := outcomeOf(err)
	metrics.ProviderRequestsTotal(s.provider.Name(), outcome)
	metrics.ProviderRequestDuration(s.provider.Name(), outcome, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		s.logger.Warn("caption provider failed",
			zap.String("provider", s.provider.Name()),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return "", err
	}

	s.logger.Info("captions generated",
		zap.String("provider", s.provider.Name()),
		zap.String("style", string(style)),
		zap.Duration("elapsed", elapsed),
	)
	return text, nil
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	if pErr, ok := provider.AsError(err); ok {
		return string(pErr.Reason)
	}
	return "error"
}
