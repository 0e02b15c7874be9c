package models

import "time"

// Action labels a user action written to the audit log
type Action string

const (
	ActionLogin      Action = "login"
	ActionLogout     Action = "logout"
	ActionUpload     Action = "upload"
	ActionDownload   Action = "download"
	ActionViewEvents Action = "view-events"
)

// Event represents a single audit log entry
type Event struct {
	ID        int64     `json:"id" db:"id"`
	User      string    `json:"usuario" db:"usuario"`
	Action    Action    `json:"accion" db:"accion"`
	Timestamp time.Time `json:"fecha" db:"fecha"`
}

// FormatTimestamp formats the event time as YYYY-MM-DD HH:MM:SS
func (e Event) FormatTimestamp() string {
	return e.Timestamp.Format("2006-01-02 15:04:05")
}
