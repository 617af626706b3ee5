// Package report implements periodic task-summary emails.
//
// Each user holds at most one subscription carrying consent, a cron
// schedule, and the absolute time the next report is due. The Service
// manages subscriptions; the Scheduler polls for due rows, composes a
// per-status count summary, dispatches it through a mail.Mailer, and
// advances NextSendAt along the subscription's schedule.
//
// The due check compares an absolute timestamp against the current time,
// so a report slot missed while the process was down fires on the next
// tick instead of being skipped.
package report
