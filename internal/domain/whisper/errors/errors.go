package errors

import "errors"

var (
	// ErrTokenNotFound is returned when a whisper token does not exist or already expired
	ErrTokenNotFound = errors.New("whisper token not found")

	// ErrWaitingNotFound is returned when no pending wait exists for the user
	ErrWaitingNotFound = errors.New("waiting state not found")

	// ErrWaitingExpired is returned when the wait deadline passed before
	// the text arrived
	ErrWaitingExpired = errors.New("waiting state expired")

	// ErrContentGone is returned when a token row exists but the text was lost,
	// e.g. after a process restart
	ErrContentGone = errors.New("whisper content no longer available")

	// ErrNotAuthorized is returned when a user tries to read a whisper
	// addressed to someone else, or calls an admin-only command
	ErrNotAuthorized = errors.New("not authorized")

	// ErrAlreadySubscribed is returned when the subscription already exists
	ErrAlreadySubscribed = errors.New("already subscribed")

	// ErrNotSubscribed is returned when there is no subscription to remove
	ErrNotSubscribed = errors.New("not subscribed")

	// ErrEmptyContent is returned when the whisper text is empty after trimming
	ErrEmptyContent = errors.New("whisper content is empty")

	// ErrContentTooLong is returned when the whisper text exceeds the alert limit
	ErrContentTooLong = errors.New("whisper content too long")

	// ErrNoReplyTarget is returned when a group trigger is not a reply
	ErrNoReplyTarget = errors.New("trigger message is not a reply")

	// ErrSelfWhisper is returned when a user whispers to themselves
	ErrSelfWhisper = errors.New("cannot whisper to yourself")

	// ErrDatabaseOperation is returned when a storage operation fails
	ErrDatabaseOperation = errors.New("database operation failed")
)
