package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/engine"
	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/task"
)

type createTaskRequest struct {
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Priority      int         `json:"priority"`
	Status        task.Status `json:"status"`
	BoardID       string      `json:"board_id"`
	StatusLabelID string      `json:"status_label_id"`
}

type updateTaskRequest struct {
	Title         *string      `json:"title"`
	Description   *string      `json:"description"`
	Priority      *int         `json:"priority"`
	Status        *task.Status `json:"status"`
	BoardID       *string      `json:"board_id"`
	StatusLabelID *string      `json:"status_label_id"`
}

// taskByExternal resolves the {externalID} path segment to the caller's task.
func (a *API) taskByExternal(r *http.Request) (*task.Task, id.UserID, error) {
	owner, _ := ownerFromContext(r.Context())
	raw := mux.Vars(r)["externalID"]
	externalID, err := uuid.Parse(raw)
	if err != nil {
		return nil, owner, &taskboard.ValidationError{Field: "external_id", Reason: "must be a UUID"}
	}
	t, err := a.store.GetTaskByExternalID(r.Context(), owner, externalID)
	return t, owner, err
}

func (a *API) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())

	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	draft := engine.Draft{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	}
	if req.BoardID != "" {
		boardID, err := id.ParseBoardID(req.BoardID)
		if err != nil {
			a.writeError(w, r, &taskboard.ValidationError{Field: "board_id", Reason: err.Error()})
			return
		}
		draft.BoardID = boardID
	}
	if req.StatusLabelID != "" {
		labelID, err := id.ParseStatusLabelID(req.StatusLabelID)
		if err != nil {
			a.writeError(w, r, &taskboard.ValidationError{Field: "status_label_id", Reason: err.Error()})
			return
		}
		draft.StatusLabel = labelID
	}

	created, err := a.engine.CreateTask(r.Context(), owner, draft)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListTasks(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())

	q := r.URL.Query()
	opts := task.ListOpts{
		Status: task.Status(q.Get("status")),
		Search: q.Get("search"),
	}
	if opts.Status != "" && !opts.Status.Valid() {
		a.writeError(w, r, taskboard.ErrInvalidStatus)
		return
	}
	if raw := q.Get("board_id"); raw != "" {
		boardID, err := id.ParseBoardID(raw)
		if err != nil {
			a.writeError(w, r, &taskboard.ValidationError{Field: "board_id", Reason: err.Error()})
			return
		}
		opts.BoardID = boardID
	}
	opts.Limit, _ = strconv.Atoi(q.Get("limit"))
	opts.Offset, _ = strconv.Atoi(q.Get("offset"))

	tasks, err := a.store.ListTasks(r.Context(), owner, opts)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	a.writeJSON(w, http.StatusOK, tasks)
}

func (a *API) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, _, err := a.taskByExternal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, t)
}

func (a *API) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	t, owner, err := a.taskByExternal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	patch := engine.Patch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	}
	if req.BoardID != nil {
		boardID := id.Nil
		if *req.BoardID != "" {
			boardID, err = id.ParseBoardID(*req.BoardID)
			if err != nil {
				a.writeError(w, r, &taskboard.ValidationError{Field: "board_id", Reason: err.Error()})
				return
			}
		}
		patch.BoardID = &boardID
	}
	if req.StatusLabelID != nil {
		labelID := id.Nil
		if *req.StatusLabelID != "" {
			labelID, err = id.ParseStatusLabelID(*req.StatusLabelID)
			if err != nil {
				a.writeError(w, r, &taskboard.ValidationError{Field: "status_label_id", Reason: err.Error()})
				return
			}
		}
		patch.StatusLabel = &labelID
	}

	updated, err := a.engine.UpdateTask(r.Context(), owner, t.ID, patch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	t, owner, err := a.taskByExternal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	completed, err := a.engine.CompleteTask(r.Context(), owner, t.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, completed)
}

func (a *API) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	t, owner, err := a.taskByExternal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.engine.SoftDeleteTask(r.Context(), owner, t.ID); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleTaskHistory(w http.ResponseWriter, r *http.Request) {
	t, owner, err := a.taskByExternal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	records, err := a.store.ListHistory(r.Context(), owner, t.ID, limit, offset)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []*task.History{}
	}
	a.writeJSON(w, http.StatusOK, records)
}
