// Package draft owns the draft lifecycle: the in-memory letter state for one
// session, LLM-backed generation and improvement, and debounced mirroring of
// the latest snapshot into the persistence store.
package draft

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type LetterType string

const (
	LetterTypeCover      LetterType = "cover letter"
	LetterTypeMotivation LetterType = "motivation letter"
)

const (
	minBackgroundLen = 50
	maxBackgroundLen = 5000
	minTargetLen     = 10
	maxTargetLen     = 1000
)

// Input is the form submission a generation call is made from. It is
// immutable once passed to Generate and superseded wholesale by the next
// submission.
type Input struct {
	Background    string     `json:"background"`
	TargetDetails string     `json:"targetDetails"`
	LetterType    LetterType `json:"letterType"`
}

func (in Input) Validate() error {
	background := utf8.RuneCountInString(in.Background)
	if background < minBackgroundLen || background > maxBackgroundLen {
		return fmt.Errorf("%w: background must be between %d and %d characters", ErrInvalidArgument, minBackgroundLen, maxBackgroundLen)
	}
	target := utf8.RuneCountInString(in.TargetDetails)
	if target < minTargetLen || target > maxTargetLen {
		return fmt.Errorf("%w: target details must be between %d and %d characters", ErrInvalidArgument, minTargetLen, maxTargetLen)
	}
	if in.LetterType != LetterTypeCover && in.LetterType != LetterTypeMotivation {
		return fmt.Errorf("%w: letter type must be %q or %q", ErrInvalidArgument, LetterTypeCover, LetterTypeMotivation)
	}
	return nil
}

// Snapshot is the persisted per-user slot: the last submitted input (nil when
// the user never generated), the letter body, and a server-assigned write
// time. One slot per user; there is no history.
type Snapshot struct {
	Input     *Input    `json:"input"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Identity is the session-scoped identity the coordinator operates under.
// A synthetic identity behaves as fully authenticated but is never persisted.
type Identity struct {
	UserID    string
	Name      string
	Synthetic bool
}

func (id Identity) Present() bool {
	return strings.TrimSpace(id.UserID) != ""
}

var (
	ErrUnauthenticated = errors.New("draft: unauthenticated")
	ErrInvalidState    = errors.New("draft: invalid state")
	ErrInvalidArgument = errors.New("draft: invalid argument")
	ErrGatewayFailure  = errors.New("draft: gateway failure")
)
