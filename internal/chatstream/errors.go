package chatstream

import "errors"

var (
	// ErrForbidden covers both non-participants and revoked company
	// memberships. Non-participants get the same answer whether or not the
	// chat exists, so chat ids are not leaked.
	ErrForbidden = errors.New("not allowed")
	ErrNotFound  = errors.New("not found")
	// ErrValidation marks a malformed payload, e.g. a send with neither
	// content nor attachments.
	ErrValidation = errors.New("invalid request")
	// ErrStorage marks a failed file-store call; the whole send aborts and no
	// rows are committed.
	ErrStorage = errors.New("file storage failed")
)
