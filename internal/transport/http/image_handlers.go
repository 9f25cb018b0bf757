package http

import (
	"net/http"

	"github.com/yaroph/connect/internal/domain"
)

func (a *API) handleGetImage(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := a.services.Images.Fetch(r.Context(), r.PathValue("filename"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type uploadImageRequest struct {
	Image string `json:"image"`
}

func (a *API) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	var req uploadImageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Image == "" {
		badRequest(w, "image is required")
		return
	}
	url, err := a.services.Images.Store(r.Context(), req.Image, domain.NewID("img"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
