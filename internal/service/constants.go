package service

import "github.com/kdduha/image-captioner/internal/models"

const (
	basePrompt      = "Write 5 distinct captions for this image."
	numberDirective = "Ensure captions are clearly numbered."
)

var styleInstructions = map[models.CaptionStyle]string{
	models.StyleShort:    "Make the captions very short and punchy (like keywords or brief phrases).",
	models.StyleDetailed: "Make the captions detailed, describing elements thoroughly.",
	models.StyleHumorous: "Make the captions lighthearted and humorous.",
	models.StyleFormal:   "Make the captions formal and descriptive.",
	models.StyleDefault:  "Make the captions descriptive.",
}
