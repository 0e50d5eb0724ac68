// Package services defines the business logic for users, posts, comments,
// and the personalized feed. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

// User-related errors.
var (
	// ErrUserNotFound indicates that no account exists for the given email
	// or user ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when a sign-up collides with an existing
	// account on the email uniqueness constraint.
	ErrEmailTaken = errors.New("user with that email already exists")

	// ErrWrongPassword is returned when sign-in or sign-out credentials do
	// not match the stored hash.
	ErrWrongPassword = errors.New("wrong password")
)

// Post- and comment-related errors.
var (
	// ErrPostNotFound indicates that the referenced post does not exist or
	// is not owned by the caller (for ownership-conditional writes).
	ErrPostNotFound = errors.New("post not found")

	// ErrCommentNotFound indicates that the referenced comment (including a
	// reply target) does not exist or is not owned by the caller.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrNoFields is returned when a partial update names no fields.
	ErrNoFields = errors.New("no fields to update")
)

// Feed-related errors.
var (
	// ErrBadCursor is returned when a feed cursor is neither the first-page
	// sentinel nor a well-formed post ID.
	ErrBadCursor = errors.New("malformed feed cursor")
)
