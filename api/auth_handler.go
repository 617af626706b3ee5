package api

import (
	"net/http"
	"strings"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/user"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email string `json:"email"`
}

type tokenResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.Username == "" {
		a.writeError(w, r, &taskboard.ValidationError{Field: "username", Reason: "must not be empty"})
		return
	}
	if !strings.Contains(req.Email, "@") {
		a.writeError(w, r, &taskboard.ValidationError{Field: "email", Reason: "must be an email address"})
		return
	}

	u := &user.User{
		Entity:   taskboard.NewEntity(),
		ID:       id.NewUserID(),
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
	}
	if err := a.store.CreateUser(r.Context(), u); err != nil {
		a.writeError(w, r, err)
		return
	}

	token, err := a.auth.IssueToken(u)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, tokenResponse{Token: token, User: u})
}

// handleLogin starts the magic-link flow. It answers 202 whether or not
// the email is registered, so the endpoint cannot be used to probe for
// accounts.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	if _, err := a.auth.StartMagicLink(r.Context(), req.Email, a.requestBaseURL(r)); err != nil {
		if !taskboard.IsValidation(err) {
			a.logger.Warn("magic link request failed", "error", err.Error())
		}
	}
	a.writeJSON(w, http.StatusAccepted, map[string]string{"status": "link sent if the address is registered"})
}

func (a *API) handleMagicLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	u, signed, err := a.auth.RedeemMagicLink(r.Context(), token)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, tokenResponse{Token: signed, User: u})
}
