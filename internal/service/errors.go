package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map these to status codes; specific errors wrap exactly one kind.
var (
	ErrNotFound      = errors.New("not found")
	ErrNotAuthorized = errors.New("not authorized")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidState  = errors.New("invalid state")
	ErrUploadFailed  = errors.New("image upload failed")
	ErrNoContent     = errors.New("message has no text or image")
)

var (
	ErrUserNotFound       = fmt.Errorf("%w: user", ErrNotFound)
	ErrGroupNotFound      = fmt.Errorf("%w: group", ErrNotFound)
	ErrNotAdmin           = fmt.Errorf("%w: only the group admin can do this", ErrNotAuthorized)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrNotAuthorized)

	ErrAlreadyMember  = fmt.Errorf("%w: user is already a member", ErrAlreadyExists)
	ErrAlreadyBlocked = fmt.Errorf("%w: user is already blocked", ErrAlreadyExists)
	ErrEmailTaken     = fmt.Errorf("%w: email already registered", ErrAlreadyExists)

	ErrNotAMember      = fmt.Errorf("%w: user is not a member of the group", ErrInvalidState)
	ErrNotBlocked      = fmt.Errorf("%w: user is not blocked", ErrInvalidState)
	ErrInvalidMembers  = fmt.Errorf("%w: no valid members to add", ErrInvalidState)
	ErrSelfBlock       = fmt.Errorf("%w: cannot block yourself", ErrInvalidState)
	ErrSelfMessage     = fmt.Errorf("%w: cannot message yourself", ErrInvalidState)
	ErrAdminMustExit   = fmt.Errorf("%w: the admin must exit the group instead", ErrInvalidState)
	ErrInvalidInput    = fmt.Errorf("%w: invalid input", ErrInvalidState)
	ErrNoImageToRemove = fmt.Errorf("%w: group has no image", ErrInvalidState)
)

var ErrMembersOnly = fmt.Errorf("%w: members only", ErrNotAuthorized)
