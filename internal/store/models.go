package store

import "time"

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	PasswordHash          string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type PasswordReset struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// LetterSnapshot is the persisted draft slot, one row per user. HasInput
// distinguishes "no form data saved" from an input whose fields are all
// empty strings.
type LetterSnapshot struct {
	UserID        string
	HasInput      bool
	Background    string
	TargetDetails string
	LetterType    string
	Body          string
	UpdatedAt     time.Time
}
