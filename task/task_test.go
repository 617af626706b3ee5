package task

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/id"
)

func TestStatusValid(t *testing.T) {
	t.Parallel()
	for _, s := range Statuses() {
		if !s.Valid() {
			t.Fatalf("canonical status %q reported invalid", s)
		}
	}
	for _, s := range []Status{"", "archived", "Pending"} {
		if s.Valid() {
			t.Fatalf("status %q reported valid", s)
		}
	}
}

func TestTaskJSONOmitsEmptyRefs(t *testing.T) {
	t.Parallel()
	tk := Task{
		Entity:     taskboard.NewEntity(),
		ID:         id.NewTaskID(),
		ExternalID: uuid.New(),
		Title:      "no board yet",
		Status:     StatusPending,
		OwnerID:    id.NewUserID(),
	}

	data, err := json.Marshal(tk)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// Unset references must vanish from the payload, not render as "".
	for _, key := range []string{"board_id", "status_label_id"} {
		if strings.Contains(string(data), key) {
			t.Fatalf("payload carries empty %s:\n%s", key, data)
		}
	}

	tk.BoardID = id.NewBoardID()
	tk.StatusLabel = id.NewStatusLabelID()
	data, err = json.Marshal(tk)
	if err != nil {
		t.Fatalf("Marshal with refs: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out["board_id"] != tk.BoardID.String() || out["status_label_id"] != tk.StatusLabel.String() {
		t.Fatalf("set references not serialized: %s", data)
	}
}
