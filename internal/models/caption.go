package models

import (
	"regexp"
	"strings"
)

// CaptionStyle selects the tone/length instruction sent to the provider.
type CaptionStyle string

const (
	StyleDefault  CaptionStyle = "default"
	StyleShort    CaptionStyle = "short"
	StyleDetailed CaptionStyle = "detailed"
	StyleHumorous CaptionStyle = "humorous"
	StyleFormal   CaptionStyle = "formal"
)

// ParseCaptionStyle never fails: empty and unknown values resolve to StyleDefault.
// Matching is case-insensitive and ignores surrounding spaces, so "Short" is StyleShort.
func ParseCaptionStyle(s string) CaptionStyle {
	switch style := CaptionStyle(strings.ToLower(strings.TrimSpace(s))); style {
	case StyleShort, StyleDetailed, StyleHumorous, StyleFormal:
		return style
	default:
		return StyleDefault
	}
}

// UploadedImage is a file staged on local disk for the duration of one request.
type UploadedImage struct {
	Path         string
	OriginalName string
	Ext          string
	MIMEType     string
	Size         int64
}

// GenerationRequest is handed to a caption provider once per request.
type GenerationRequest struct {
	Prompt   string
	Image    []byte
	MIMEType string
}

// CaptionResponse is the body of /caption-image when JSON output is enabled.
type CaptionResponse struct {
	Style    CaptionStyle `json:"style" example:"short"`
	Captions []string     `json:"captions"`
	Raw      string       `json:"raw" example:"1. Sunset over the bay\n2. Golden hour"`
}

var numberedLine = regexp.MustCompile(`^\s*\**\s*(\d+)[.):]\**\s+(.+)$`)

// ParseNumberedCaptions extracts "1. caption" style lines from provider text.
// Lines without a number prefix are ignored; the count is not enforced.
func ParseNumberedCaptions(raw string) []string {
	captions := make([]string, 0, 5)
	for _, line := range strings.Split(raw, "\n") {
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		caption := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[2]), `*"`))
		if caption != "" {
			captions = append(captions, caption)
		}
	}
	return captions
}
