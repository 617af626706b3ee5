package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/board"
	"github.com/rabilrbl/taskboard/engine"
	"github.com/rabilrbl/taskboard/id"
)

type boardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type boardPatchRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type labelRequest struct {
	Title string `json:"title"`
}

func boardIDFromPath(r *http.Request) (id.BoardID, error) {
	boardID, err := id.ParseBoardID(mux.Vars(r)["boardID"])
	if err != nil {
		return id.Nil, &taskboard.ValidationError{Field: "board_id", Reason: err.Error()}
	}
	return boardID, nil
}

func (a *API) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())

	var req boardRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	created, err := a.engine.CreateBoard(r.Context(), owner, req.Title, req.Description)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListBoards(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())

	boards, err := a.store.ListBoards(r.Context(), owner)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if boards == nil {
		boards = []*board.Board{}
	}
	a.writeJSON(w, http.StatusOK, boards)
}

func (a *API) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())
	boardID, err := boardIDFromPath(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	b, err := a.store.GetBoard(r.Context(), owner, boardID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, b)
}

func (a *API) handleUpdateBoard(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())
	boardID, err := boardIDFromPath(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var req boardPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	updated, err := a.engine.UpdateBoard(r.Context(), owner, boardID, engine.BoardPatch{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())
	boardID, err := boardIDFromPath(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.engine.SoftDeleteBoard(r.Context(), owner, boardID); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleCreateStatusLabel(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())
	boardID, err := boardIDFromPath(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var req labelRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	created, err := a.engine.CreateStatusLabel(r.Context(), owner, boardID, req.Title)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListStatusLabels(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())
	boardID, err := boardIDFromPath(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	labels, err := a.store.ListStatusLabels(r.Context(), owner, boardID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if labels == nil {
		labels = []*board.StatusLabel{}
	}
	a.writeJSON(w, http.StatusOK, labels)
}

func (a *API) handleDeleteStatusLabel(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())
	labelID, err := id.ParseStatusLabelID(mux.Vars(r)["labelID"])
	if err != nil {
		a.writeError(w, r, &taskboard.ValidationError{Field: "label_id", Reason: err.Error()})
		return
	}
	if err := a.engine.SoftDeleteStatusLabel(r.Context(), owner, labelID); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
