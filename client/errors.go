package client

import "errors"

// ErrUnauthenticated indicates no signed-in user, or a rejected token.
var ErrUnauthenticated = errors.New("client: not authenticated")

// ErrNotFound indicates a reference to an entry id the store does not hold.
var ErrNotFound = errors.New("client: entry not found")

// ErrRemoteUnavailable indicates the store rejected or timed out the
// operation. Writes retry on it before surfacing a failed result.
var ErrRemoteUnavailable = errors.New("client: remote store unavailable")

// ErrValidation indicates input rejected at the write boundary, such as a
// non-numeric or negative quantity.
var ErrValidation = errors.New("client: validation failed")
