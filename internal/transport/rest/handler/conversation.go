package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"eternal/internal/model"
	"eternal/internal/service"
	"eternal/internal/transport/rest/middleware"
)

const maxImageBytes = 10 << 20

// ConversationHandler handles the interview endpoints
type ConversationHandler struct {
	sessionSvc *service.SessionService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(sessionSvc *service.SessionService) *ConversationHandler {
	return &ConversationHandler{sessionSvc: sessionSvc}
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	State      *model.ConversationState `json:"state"`
	Appended   []model.Message          `json:"appended"`
	ShowReport bool                     `json:"showReport"`
}

type uploadImageResponse struct {
	Result *model.ValidationResult  `json:"result"`
	State  *model.ConversationState `json:"state"`
}

// Start handles POST /v1/conversation
func (h *ConversationHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	state, err := h.sessionSvc.Start(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// Get handles GET /v1/conversation
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	state, err := h.sessionSvc.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// SendMessage handles POST /v1/conversation/messages
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, turn, err := h.sessionSvc.SendMessage(r.Context(), userID, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{
		State:      state,
		Appended:   turn.Appended,
		ShowReport: turn.ShowReport,
	})
}

// UploadImage handles POST /v1/conversation/image (multipart field "image")
func (h *ConversationHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<20)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form with an image field")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	result, state, err := h.sessionSvc.UploadImage(r.Context(), userID, data, contentType)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadImageResponse{Result: result, State: state})
}

// Retake handles POST /v1/conversation/retake
func (h *ConversationHandler) Retake(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	state, err := h.sessionSvc.Retake(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}
