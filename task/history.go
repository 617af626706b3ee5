package task

import (
	"time"

	"github.com/rabilrbl/taskboard/id"
)

// History is an immutable audit record of one status transition. Exactly one
// record exists per save in which the persisted status changed; none is
// written on first insert or when the status is unchanged. Records are never
// mutated or deleted.
type History struct {
	ID        id.HistoryID `json:"id"`
	TaskID    id.TaskID    `json:"task_id"`
	OldStatus Status       `json:"old_status"`
	NewStatus Status       `json:"new_status"`
	ChangedAt time.Time    `json:"changed_at"`
}
