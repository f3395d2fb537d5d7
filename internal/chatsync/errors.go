package chatsync

import "github.com/pkg/errors"

var (
	ErrNotSignedIn      = errors.New("not signed in")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
	ErrEmptyRecording   = errors.New("recording is empty")
	ErrPendingMessage   = errors.New("message is not confirmed yet")
	ErrNotAuthor        = errors.New("only the author can delete for everyone")
	ErrSessionClosed    = errors.New("session closed")
)
