package report

import (
	"fmt"

	"github.com/rabilrbl/taskboard/mail"
	"github.com/rabilrbl/taskboard/task"
	"github.com/rabilrbl/taskboard/user"
)

// Subject is the fixed subject line of every summary email.
const Subject = "Task Manager Report"

// Compose renders the summary email for one user from their per-status
// task counts. Statuses absent from counts render as zero.
func Compose(u *user.User, counts map[task.Status]int, from string) *mail.Message {
	body := fmt.Sprintf(
		"Hi %s,\n\nYou have %d pending tasks, %d completed tasks, %d in progress tasks, %d cancelled tasks.\n\nRegards,\nTask Manager",
		u.DisplayName(),
		counts[task.StatusPending],
		counts[task.StatusCompleted],
		counts[task.StatusInProgress],
		counts[task.StatusCancelled],
	)
	return &mail.Message{
		From:    from,
		To:      []string{u.Email},
		Subject: Subject,
		Body:    body,
	}
}
