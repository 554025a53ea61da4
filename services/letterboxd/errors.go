package letterboxd

import "errors"

var (
	// ErrUserNotFound means the site confirmed the profile does not exist.
	ErrUserNotFound = errors.New("letterboxd user not found")

	// ErrTransport covers timeouts, network failures and unexpected statuses.
	ErrTransport = errors.New("letterboxd request failed")

	// ErrParse means a page was fetched but its expected structure is absent.
	ErrParse = errors.New("letterboxd page parse failed")

	// errPageNotFound is the internal signal for a 404 response; callers map
	// it to ErrUserNotFound or to end-of-pagination depending on context.
	errPageNotFound = errors.New("letterboxd page not found")
)
