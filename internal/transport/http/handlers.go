package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"formflow-analytics/internal/app"
	"formflow-analytics/internal/domain"
)

// Handler serves the REST surface of the survey service.
type Handler struct {
	service *app.SurveyService
}

func NewHandler(service *app.SurveyService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) createForm(w http.ResponseWriter, r *http.Request) {
	var draft domain.FormDraft
	if !decodeJSON(w, r, &draft) {
		return
	}
	form, err := h.service.CreateForm(r.Context(), draft)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, formResponse{Form: form, ShareURL: h.service.ShareLink(form.ID)})
}

func (h *Handler) listForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.service.ListForms(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if forms == nil {
		forms = []domain.Form{}
	}
	writeJSON(w, http.StatusOK, forms)
}

func (h *Handler) getForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.service.GetForm(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formResponse{Form: form, ShareURL: h.service.ShareLink(form.ID)})
}

func (h *Handler) toggleForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.service.ToggleFormStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *Handler) submitResponse(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	response, err := h.service.SubmitResponse(r.Context(), r.PathValue("id"), req.Answers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, response)
}

func (h *Handler) listResponses(w http.ResponseWriter, r *http.Request) {
	responses, err := h.service.ListResponses(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if responses == nil {
		responses = []domain.Response{}
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) generateSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GenerateSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	export, err := h.service.Export(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	body, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		writeServiceError(w, fmt.Errorf("encode export: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(export.Form.Title)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
