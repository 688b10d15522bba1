package ledger

import "errors"

// Domain failures are expected outcomes: the protocol layer converts each
// of them into a response line. Only storage trouble is treated as fatal
// by callers.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUserNotFound        = errors.New("there is no user with this username")
	ErrGroupNotFound       = errors.New("there is no group with this name")
	ErrUsernameExists      = errors.New("username already exists")
	ErrUnableToCreateGroup = errors.New("unable to create group")
	ErrInvalidUsername     = errors.New("the username should be at least 8 characters")
	ErrInvalidPassword     = errors.New("the password should be at least 8 characters")

	// ErrNotFriends is raised when an operation needs an existing
	// friendship entry and none exists.
	ErrNotFriends = errors.New("there is no such user in your friends list")
)
