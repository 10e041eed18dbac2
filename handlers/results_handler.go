package handlers

import (
	"net/http"

	"github.com/Dosada05/voting-system/middleware"
	"github.com/Dosada05/voting-system/services"
)

type ResultsHandler struct {
	tallyService *services.TallyService
}

func NewResultsHandler(tallyService *services.TallyService) *ResultsHandler {
	return &ResultsHandler{tallyService: tallyService}
}

// PositionResults обрабатывает GET /positions/{positionID}/results
func (h *ResultsHandler) PositionResults(w http.ResponseWriter, r *http.Request) {
	// Без токена — как зритель: результаты видны после публикации.
	caller, _ := middleware.CallerFromContext(r.Context())

	positionID, err := getIDFromURL(r, "positionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.tallyService.PositionResults(r.Context(), caller, positionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ElectionResults обрабатывает GET /elections/{electionID}/results
func (h *ResultsHandler) ElectionResults(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	electionID, err := getIDFromURL(r, "electionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.tallyService.ElectionResults(r.Context(), caller, electionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
