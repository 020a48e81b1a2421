package model

// UserID identifies an authenticated account in the remote store
type UserID string

// Identity is the signed-in user as reported by the external auth provider.
// A nil *Identity means anonymous.
type Identity struct {
	UserID UserID
}
