package pollbox_errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidInput  = errors.New("invalid input")
	ErrAlreadyExists = errors.New("already exists")
	ErrAlreadyVoted  = errors.New("already voted")
	ErrRateLimited   = errors.New("rate limited")
)

// AlreadyVotedError reports a duplicate vote attempt together with the text of
// the choice the user picked the first time. Matches ErrAlreadyVoted under
// errors.Is.
type AlreadyVotedError struct {
	ChoiceText string
}

func (e *AlreadyVotedError) Error() string {
	if e.ChoiceText == "" {
		return "already voted on this question"
	}
	return fmt.Sprintf("already voted on this question (picked %q)", e.ChoiceText)
}

func (e *AlreadyVotedError) Unwrap() error {
	return ErrAlreadyVoted
}
