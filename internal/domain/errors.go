package domain

import "errors"

var (
	// ErrInvalidInput marks client-side validation failures that never
	// reach the network (bad email format, short password, empty image).
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials carries the backend's rejection of a login
	// or register attempt, with the extracted detail message wrapped in.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotLoggedIn rejects save/history operations locally when no
	// session token is held.
	ErrNotLoggedIn = errors.New("must be logged in")
	// ErrNoImage rejects an analyze trigger before any file was attached.
	ErrNoImage = errors.New("no image attached")
	// ErrBusy rejects a second analyze/save trigger while one is in flight.
	ErrBusy = errors.New("another request is in progress")
	// ErrStaleRun is returned when the workflow was reset or logged out
	// while a request was in flight; the late response is discarded.
	ErrStaleRun       = errors.New("workflow reset while request in flight")
	ErrSessionExpired = errors.New("session expired")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("resource not found")
	// ErrBackend wraps transport failures and non-2xx responses whose
	// body did not follow the structured error convention.
	ErrBackend = errors.New("backend request failed")
)
