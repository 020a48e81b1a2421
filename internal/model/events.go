package model

import "time"

// NotificationKind identifies the type of notification
type NotificationKind string

const (
	NotificationRemoteSync       NotificationKind = "remote-sync"
	NotificationRemoteSyncFailed NotificationKind = "remote-sync-failed"
	NotificationLocalSaveFailed  NotificationKind = "local-save-failed"
	NotificationImport           NotificationKind = "import"
	NotificationIdentityChanged  NotificationKind = "identity-changed"
	NotificationCodesAssigned    NotificationKind = "codes-assigned"
	NotificationMutationFailed   NotificationKind = "mutation-failed"
)

// NotificationLevel is the severity shown to the user
type NotificationLevel string

const (
	LevelInfo  NotificationLevel = "info"
	LevelError NotificationLevel = "error"
)

// Notification is a non-blocking, user-visible outcome of background work
type Notification struct {
	Kind    NotificationKind  `json:"kind"`
	Level   NotificationLevel `json:"level"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	UserID  UserID            `json:"user_id,omitempty"`
	At      time.Time         `json:"at"`
}
