package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/auth"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			a.logger.Error("encode response", slog.String("error", err.Error()))
		}
	}
}

func (a *API) writeErrorStatus(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps domain errors onto HTTP statuses. Unknown errors are
// logged and surface as opaque 500s.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, taskboard.ErrTaskNotFound),
		errors.Is(err, taskboard.ErrBoardNotFound),
		errors.Is(err, taskboard.ErrStatusLabelNotFound),
		errors.Is(err, taskboard.ErrUserNotFound),
		errors.Is(err, taskboard.ErrSubscriptionNotFound):
		a.writeErrorStatus(w, http.StatusNotFound, err.Error())
	case taskboard.IsValidation(err), errors.Is(err, taskboard.ErrInvalidStatus):
		a.writeErrorStatus(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, taskboard.ErrDuplicateUser),
		errors.Is(err, taskboard.ErrDuplicateExternalID),
		errors.Is(err, taskboard.ErrDuplicateSubscription),
		errors.Is(err, taskboard.ErrPriorityChainTooLong):
		a.writeErrorStatus(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidLink):
		a.writeErrorStatus(w, http.StatusUnauthorized, err.Error())
	default:
		a.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		a.writeErrorStatus(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &taskboard.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}
