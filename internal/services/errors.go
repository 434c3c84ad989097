package services

import "errors"

// ErrNotAuthenticated means the call reached a service without a signed-in
// user. Never retried; the handler turns it into a 401.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrInvalidInput marks a caller-supplied payload problem, as opposed to
// model output that failed validation.
var ErrInvalidInput = errors.New("invalid input")
