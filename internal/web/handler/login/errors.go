package login

import "errors"

var (
	// ErrInvalidCredentials is returned for every failed login. It does not tell
	// unknown users, wrong passwords and disabled accounts apart.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInternalServerError is returned for unexpected failures during the login
	// process.
	ErrInternalServerError = errors.New("internal server error")
)
