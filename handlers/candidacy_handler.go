package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/Dosada05/voting-system/middleware"
	"github.com/Dosada05/voting-system/models"
	"github.com/Dosada05/voting-system/services"
)

const maxUploadBytes = 5 << 20 // 5MB

type CandidacyHandler struct {
	candidacyService *services.CandidacyService
}

func NewCandidacyHandler(candidacyService *services.CandidacyService) *CandidacyHandler {
	return &CandidacyHandler{candidacyService: candidacyService}
}

// Submit обрабатывает POST /positions/{positionID}/candidacies
func (h *CandidacyHandler) Submit(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	positionID, err := getIDFromURL(r, "positionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Statement string `json:"statement"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	candidate, err := h.candidacyService.Submit(r.Context(), caller, positionID, input.Statement)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"candidate": candidate}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Review обрабатывает POST /admin/candidacies/{candidateID}/review
func (h *CandidacyHandler) Review(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	candidateID, err := getIDFromURL(r, "candidateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Decision string `json:"decision"`
		Reason   string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	candidate, err := h.candidacyService.Review(r.Context(), caller, candidateID, services.ReviewDecision(input.Decision), input.Reason)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"candidate": candidate}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByPosition обрабатывает GET /positions/{positionID}/candidacies
func (h *CandidacyHandler) ListByPosition(w http.ResponseWriter, r *http.Request) {
	// Анонимный доступ допустим: без токена виден только approved-список.
	caller, _ := middleware.CallerFromContext(r.Context())

	positionID, err := getIDFromURL(r, "positionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	candidates, err := h.candidacyService.ListByPosition(r.Context(), caller, positionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"candidates": candidates}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Mine обрабатывает GET /candidacies/mine
func (h *CandidacyHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	candidates, err := h.candidacyService.ListByUser(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"candidates": candidates}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadPhoto обрабатывает POST /candidacies/{candidateID}/photo
func (h *CandidacyHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.candidacyService.UploadPhoto)
}

// UploadDocument обрабатывает POST /candidacies/{candidateID}/document
func (h *CandidacyHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.candidacyService.UploadDocument)
}

func (h *CandidacyHandler) upload(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, caller *models.User, candidateID int, contentType string, reader io.Reader) (*models.Candidate, error)) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	candidateID, err := getIDFromURL(r, "candidateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("Content-Type header is required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	candidate, err := fn(r.Context(), caller, candidateID, contentType, r.Body)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"candidate": candidate}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
