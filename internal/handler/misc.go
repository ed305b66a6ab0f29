package handler

import (
	"io"
	"net/http"

	"github.com/bytedance/sonic"
)

// Welcome godoc
// @Summary Welcome message
// @Tags misc
// @Produce plain
// @Success 200 {string} string "Welcome to the Image Captioning API"
// @Router / [get]
func Welcome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Welcome to the Image Captioning API")
}

type HealthResponse struct {
	Status     string `json:"status" example:"ok"`
	Provider   string `json:"provider" example:"gemini"`
	Credential bool   `json:"credential"`
}

// Health reports the configured provider and whether its API key is set. It
// never calls the provider.
//
// @Summary Service health
// @Tags misc
// @Produce json
// @Success 200 {object} handler.HealthResponse
// @Router /health [get]
func Health(providerName string, credential bool) http.HandlerFunc {
	body, _ := sonic.Marshal(&HealthResponse{Status: "ok", Provider: providerName, Credential: credential})
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}
