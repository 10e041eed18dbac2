package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/voting-system/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

func getIDFromURL(r *http.Request, param string) (int, error) {
	idStr := chi.URLParam(r, param)
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter", param)
	}
	return id, nil
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // Ошибка программиста: передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error", slog.String("path", r.URL.Path), slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

func unprocessableResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
}

// serviceUnavailableResponse — для транзиентных отказов хранилища.
// Единственный вид ошибки, который клиенту имеет смысл повторить.
func serviceUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("store unavailable", slog.String("path", r.URL.Path), slog.Any("error", err))
	w.Header().Set("Retry-After", "5")
	errorResponse(w, r, http.StatusServiceUnavailable, "the data store is temporarily unavailable, retry later")
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы.
// Ни одно именованное условие не превращается в непрозрачную 500.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Не найдено
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrElectionNotFound),
		errors.Is(err, services.ErrPositionNotFound),
		errors.Is(err, services.ErrCandidateNotFound):
		notFoundResponse(w, r)

	// Конфликты уникальности: ошибка клиента или устаревший UI
	case errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, services.ErrDuplicateCandidacy),
		errors.Is(err, services.ErrAlreadyReviewed),
		errors.Is(err, services.ErrAlreadyVoted):
		conflictResponse(w, r, err.Error())

	// Жизненный цикл и временные окна
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrElectionNotEditable),
		errors.Is(err, services.ErrCandidacyGateNotMet),
		errors.Is(err, services.ErrElectionHasVotes):
		conflictResponse(w, r, err.Error())
	case errors.Is(err, services.ErrWindowClosed),
		errors.Is(err, services.ErrVotingClosed),
		errors.Is(err, services.ErrResultsNotPublished):
		forbiddenResponse(w, r, err.Error())

	// Невалидные данные / бизнес-правила
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrElectionTitleRequired),
		errors.Is(err, services.ErrElectionInvalidDates),
		errors.Is(err, services.ErrPositionTitleRequired),
		errors.Is(err, services.ErrPositionInvalidSeats),
		errors.Is(err, services.ErrStatementRequired),
		errors.Is(err, services.ErrRejectionReasonRequired),
		errors.Is(err, services.ErrElectionWithoutPositions):
		unprocessableResponse(w, r, err)

	// Бюллетень
	case errors.Is(err, services.ErrInvalidBallot),
		errors.Is(err, services.ErrIneligibleCandidate):
		unprocessableResponse(w, r, err)

	// Аутентификация и доступ
	case errors.Is(err, services.ErrInvalidCredentials):
		unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrNotAuthorized),
		errors.Is(err, services.ErrAccountNotApproved):
		forbiddenResponse(w, r, err.Error())

	// Инфраструктура
	case errors.Is(err, services.ErrStoreUnavailable):
		serviceUnavailableResponse(w, r, err)

	default:
		serverErrorResponse(w, r, err)
	}
}
