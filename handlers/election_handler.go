package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/voting-system/middleware"
	"github.com/Dosada05/voting-system/models"
	"github.com/Dosada05/voting-system/repositories"
	"github.com/Dosada05/voting-system/services"
)

type ElectionHandler struct {
	electionService *services.ElectionService
}

func NewElectionHandler(electionService *services.ElectionService) *ElectionHandler {
	return &ElectionHandler{electionService: electionService}
}

// Create обрабатывает POST /admin/elections
func (h *ElectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.CreateElectionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	election, err := h.electionService.Create(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"election": election}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByID обрабатывает GET /elections/{electionID}
func (h *ElectionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "electionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	election, err := h.electionService.GetWithPositions(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"election": election}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List обрабатывает GET /elections
func (h *ElectionHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListElectionsFilter
	query := r.URL.Query()

	if phaseStr := query.Get("phase"); phaseStr != "" {
		phase := models.ElectionPhase(phaseStr)
		if !phase.Valid() {
			badRequestResponse(w, r, errors.New("invalid phase query parameter"))
			return
		}
		filter.Phase = &phase
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		} else {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
	} else {
		filter.Limit = 20
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		} else {
			badRequestResponse(w, r, errors.New("invalid offset query parameter"))
			return
		}
	}

	elections, err := h.electionService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"elections": elections}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Update обрабатывает PUT /admin/elections/{electionID}
func (h *ElectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "electionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateElectionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	election, err := h.electionService.UpdateDetails(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"election": election}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete обрабатывает DELETE /admin/elections/{electionID}
func (h *ElectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "electionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.electionService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddPosition обрабатывает POST /admin/elections/{electionID}/positions
func (h *ElectionHandler) AddPosition(w http.ResponseWriter, r *http.Request) {
	electionID, err := getIDFromURL(r, "electionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.PositionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	position, err := h.electionService.AddPosition(r.Context(), electionID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"position": position}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdatePosition обрабатывает PUT /admin/positions/{positionID}
func (h *ElectionHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	positionID, err := getIDFromURL(r, "positionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.PositionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	position, err := h.electionService.UpdatePosition(r.Context(), positionID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"position": position}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeletePosition обрабатывает DELETE /admin/positions/{positionID}
func (h *ElectionHandler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	positionID, err := getIDFromURL(r, "positionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.electionService.DeletePosition(r.Context(), positionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Publish обрабатывает POST /admin/elections/{electionID}/publish
func (h *ElectionHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actorID, electionID int) (*models.Election, error) {
		return h.electionService.Publish(r.Context(), actorID, electionID)
	})
}

// OpenVoting обрабатывает POST /admin/elections/{electionID}/open-voting
func (h *ElectionHandler) OpenVoting(w http.ResponseWriter, r *http.Request) {
	override := r.URL.Query().Get("override") == "true"
	h.transition(w, r, func(actorID, electionID int) (*models.Election, error) {
		return h.electionService.OpenVoting(r.Context(), actorID, electionID, override)
	})
}

// CloseVoting обрабатывает POST /admin/elections/{electionID}/close-voting
func (h *ElectionHandler) CloseVoting(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actorID, electionID int) (*models.Election, error) {
		return h.electionService.CloseVoting(r.Context(), actorID, electionID)
	})
}

// PublishResults обрабатывает POST /admin/elections/{electionID}/publish-results
func (h *ElectionHandler) PublishResults(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actorID, electionID int) (*models.Election, error) {
		return h.electionService.PublishResults(r.Context(), actorID, electionID)
	})
}

// ListTransitions обрабатывает GET /admin/elections/{electionID}/transitions
func (h *ElectionHandler) ListTransitions(w http.ResponseWriter, r *http.Request) {
	electionID, err := getIDFromURL(r, "electionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	transitions, err := h.electionService.ListTransitions(r.Context(), electionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"transitions": transitions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ElectionHandler) transition(w http.ResponseWriter, r *http.Request, fn func(actorID, electionID int) (*models.Election, error)) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	electionID, err := getIDFromURL(r, "electionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	election, err := fn(actorID, electionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"election": election}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
