package ledger

import "errors"

var (
	// ErrValidation is returned for malformed input on request creation,
	// such as a non-positive target amount or an unknown funding type.
	ErrValidation = errors.New("invalid request")

	// ErrInvalidAmount is returned when a donation amount is not positive
	// or exceeds the remaining amount at the time the debit is applied.
	ErrInvalidAmount = errors.New("invalid donation amount")

	// ErrNotFound is returned when the referenced request does not exist.
	ErrNotFound = errors.New("request not found")

	// ErrNotContributable is returned when a request's owner has no
	// verified document, so the request cannot accept funds yet.
	ErrNotContributable = errors.New("request has no verified document")
)
