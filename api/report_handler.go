package api

import (
	"net/http"
)

type reportRequest struct {
	Consent  bool   `json:"consent"`
	Schedule string `json:"schedule"`
}

func (a *API) handleGetReport(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())

	sub, err := a.reports.Get(r.Context(), owner)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, sub)
}

func (a *API) handlePutReport(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())

	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	sub, err := a.reports.Subscribe(r.Context(), owner, req.Consent, req.Schedule)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, sub)
}
