package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/screenmerch-go/internal/capture"
	"github.com/andreasstove999/screenmerch-go/internal/geometry"
	"github.com/andreasstove999/screenmerch-go/internal/screenshot"
)

type captureResponse struct {
	Success bool `json:"success"`
	capture.Result
}

// CaptureScreenshot renders one frame server-side.
func (h *Handler) CaptureScreenshot(w http.ResponseWriter, r *http.Request) {
	var req capture.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	res, err := h.capturer.Capture(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, captureResponse{Success: true, Result: res})
}

type sessionResponse struct {
	Success bool             `json:"success"`
	Session screenshot.State `json:"session"`
	Limit   int              `json:"limit"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.screenshots.CreateSession(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		"session_id": st.SessionID,
		"limit":      h.screenshots.Limit(),
	})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.screenshots.Get(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: st, Limit: h.screenshots.Limit()})
}

type addScreenshotRequest struct {
	VideoURL     string  `json:"video_url"`
	Timestamp    float64 `json:"timestamp"`
	PrintDPI     int     `json:"print_dpi"`
	ThumbnailURL string  `json:"thumbnail_url"`

	// The client's current frame, when it could read one.
	Frame         string  `json:"frame"`
	DisplayWidth  float64 `json:"display_width"`
	DisplayHeight float64 `json:"display_height"`
	ReadyState    int     `json:"ready_state"`
	CurrentTime   float64 `json:"current_time"`
}

// AddScreenshot captures through the fallback chain and appends the result to the session.
func (h *Handler) AddScreenshot(w http.ResponseWriter, r *http.Request) {
	var body addScreenshotRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	req := capture.Request{
		VideoURL:     body.VideoURL,
		Timestamp:    body.Timestamp,
		PrintDPI:     body.PrintDPI,
		ThumbnailURL: body.ThumbnailURL,
	}
	if req.Timestamp < 0 || req.PrintDPI < 0 {
		writeError(w, r, http.StatusBadRequest, "timestamp and print_dpi must not be negative")
		return
	}
	if body.Frame == "" && req.VideoURL == "" && req.ThumbnailURL == "" {
		writeError(w, r, http.StatusBadRequest, "frame, video_url or thumbnail_url is required")
		return
	}
	if err := req.ValidateSources(); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	src := capture.UploadedFrame{
		Frame:   body.Frame,
		Display: geometry.Size{Width: body.DisplayWidth, Height: body.DisplayHeight},
		State:   body.ReadyState,
		Time:    body.CurrentTime,
	}

	shot, err := h.screenshots.Capture(r.Context(), chi.URLParam(r, "sessionId"), src, req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "screenshot": shot})
}

func (h *Handler) RemoveScreenshot(w http.ResponseWriter, r *http.Request) {
	st, err := h.screenshots.Remove(r.Context(), chi.URLParam(r, "sessionId"), chi.URLParam(r, "screenshotId"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: st, Limit: h.screenshots.Limit()})
}

// SetPendingMerch stores the product selection handed from the capture page to the product page.
func (h *Handler) SetPendingMerch(w http.ResponseWriter, r *http.Request) {
	var merch json.RawMessage
	if err := decodeJSON(w, r, &merch); err != nil || len(merch) == 0 {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	st, err := h.screenshots.SetPendingMerch(r.Context(), chi.URLParam(r, "sessionId"), merch)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: st, Limit: h.screenshots.Limit()})
}

func (h *Handler) ClearPendingMerch(w http.ResponseWriter, r *http.Request) {
	if err := h.screenshots.ClearPendingMerch(r.Context(), chi.URLParam(r, "sessionId")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
