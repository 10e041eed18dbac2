package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/voting-system/middleware"
	"github.com/Dosada05/voting-system/models"
	"github.com/Dosada05/voting-system/repositories"
	"github.com/Dosada05/voting-system/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me обрабатывает GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List обрабатывает GET /admin/users (только админ)
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListUsersFilter
	query := r.URL.Query()

	if roleStr := query.Get("role"); roleStr != "" {
		role := models.UserRole(roleStr)
		if !role.Valid() {
			badRequestResponse(w, r, errors.New("invalid role query parameter"))
			return
		}
		filter.Role = &role
	}
	if statusStr := query.Get("status"); statusStr != "" {
		status := models.UserStatus(statusStr)
		if !status.Valid() {
			badRequestResponse(w, r, errors.New("invalid status query parameter"))
			return
		}
		filter.Status = &status
	}

	users, err := h.userService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetStatus обрабатывает PATCH /admin/users/{userID}/status (только админ).
// Этим же действием админ одобряет, отклоняет, блокирует и
// реактивирует учётные записи.
func (h *UserHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.UserStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.SetStatus(r.Context(), id, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
