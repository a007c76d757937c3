package service

import "errors"

var (
	// ErrInvalidUserID is returned when a user ID is not a well-formed UUID.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidRideID is returned when a ride ID is not a well-formed UUID.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidRatingID is returned when a rating ID is not a well-formed UUID.
	ErrInvalidRatingID = errors.New("invalid rating id")

	// ErrInvalidMessageID is returned when a message ID is not a well-formed UUID.
	ErrInvalidMessageID = errors.New("invalid message id")

	// ErrInvalidRole is returned when a role is neither user nor admin.
	ErrInvalidRole = errors.New("invalid role")

	// ErrEmptySearchQuery is returned when a user search has no query text.
	ErrEmptySearchQuery = errors.New("search query is required")

	// ErrUserNotFound is returned when the target user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrRideNotFound is returned when the target ride does not exist.
	ErrRideNotFound = errors.New("ride not found")

	// ErrRatingNotFound is returned when the target rating does not exist.
	ErrRatingNotFound = errors.New("rating not found")

	// ErrMessageNotFound is returned when the target message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrAdminProtected is returned when trying to delete an admin account.
	ErrAdminProtected = errors.New("cannot delete admin users")

	// ErrInvalidRegistration is returned when registration fields are missing or malformed.
	ErrInvalidRegistration = errors.New("first name, valid email and a password of at least 6 characters are required")

	// ErrEmailTaken is returned when registering with an email that already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned when login email or password is wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
