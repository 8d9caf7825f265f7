package auth

import "errors"

var (
	// ErrUnauthenticated is returned when a request carries no resolvable principal.
	ErrUnauthenticated = errors.New("please log in")

	// ErrForbidden is returned when the principal lacks the required permissions.
	// It never names the missing code.
	ErrForbidden = errors.New("insufficient permission")

	// ErrInvalidOldPassword is returned when the provided old password does not match the user's current password.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled user account.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserNotFound is returned when a user cannot be found in the database or directory.
	ErrUserNotFound = errors.New("user not found")

	// ErrMultipleUsersFound is returned when a query expected one user but found multiple.
	// This typically indicates a misconfigured LDAP filter or duplicate entries.
	ErrMultipleUsersFound = errors.New("multiple users found")

	// ErrLocalLoginDisabled is returned when local database accounts are switched off.
	ErrLocalLoginDisabled = errors.New("local authentication is disabled")
)
