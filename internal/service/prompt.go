package service

import (
	"strings"

	"github.com/kdduha/image-captioner/internal/models"
)

// BuildPrompt composes the instruction sent alongside the image. Unknown
// styles fall back to the default instruction.
func BuildPrompt(style models.CaptionStyle) string {
	instruction, ok := styleInstructions[style]
	if !ok {
		instruction = styleInstructions[models.StyleDefault]
	}
	return strings.Join([]string{basePrompt, instruction, numberDirective}, " ")
}
