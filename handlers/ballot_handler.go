package handlers

import (
	"net/http"

	"github.com/Dosada05/voting-system/middleware"
	"github.com/Dosada05/voting-system/services"
)

type BallotHandler struct {
	ballotService *services.BallotService
}

func NewBallotHandler(ballotService *services.BallotService) *BallotHandler {
	return &BallotHandler{ballotService: ballotService}
}

// Cast обрабатывает POST /positions/{positionID}/votes.
// Подтверждённый бюллетень окончателен: операций изменения или
// отзыва голоса не существует.
func (h *BallotHandler) Cast(w http.ResponseWriter, r *http.Request) {
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
		CandidateIDs []int `json:"candidate_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	receipt, err := h.ballotService.CastVote(r.Context(), caller, positionID, input.CandidateIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"receipt": receipt}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Status обрабатывает GET /elections/{electionID}/ballot-status:
// какие должности выборов избиратель уже закрыл своим бюллетенем.
func (h *BallotHandler) Status(w http.ResponseWriter, r *http.Request) {
	voterID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	electionID, err := getIDFromURL(r, "electionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	positionIDs, err := h.ballotService.BallotStatus(r.Context(), voterID, electionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"voted_position_ids": positionIDs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
