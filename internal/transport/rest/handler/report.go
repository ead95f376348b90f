package handler

import (
	"net/http"

	"eternal/internal/model"
	"eternal/internal/service"
	"eternal/internal/transport/rest/middleware"
)

// ReportHandler handles report endpoints
type ReportHandler struct {
	sessionSvc *service.SessionService
}

// NewReportHandler creates a new report handler
func NewReportHandler(sessionSvc *service.SessionService) *ReportHandler {
	return &ReportHandler{sessionSvc: sessionSvc}
}

// reportResponse adds the derived overall score to the stored report
type reportResponse struct {
	*model.Report
	OverallScore int    `json:"overallScore"`
	OverallLabel string `json:"overallLabel"`
}

func newReportResponse(r *model.Report) reportResponse {
	score := r.OverallScore()
	return reportResponse{Report: r, OverallScore: score, OverallLabel: model.ScoreLabel(score)}
}

// Generate handles POST /v1/conversation/report
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	report, state, err := h.sessionSvc.GenerateReport(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report": newReportResponse(report),
		"state":  state,
	})
}

// Mine handles GET /v1/reports/me
func (h *ReportHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	report, err := h.sessionSvc.Report(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newReportResponse(report))
}
