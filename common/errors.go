package common

import (
	"errors"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrUnsupportedAsset    = errors.New("unsupported asset")
	ErrUnsupportedChain    = errors.New("unsupported chain")
	ErrUnsupportedProvider = errors.New("unsupported bridge provider")
	ErrSameChain           = errors.New("source and target chain are the same")
	ErrInvalidAddress      = errors.New("invalid address")
	ErrSubmission          = errors.New("source leg submission failed")
	ErrNotFound            = errors.New("transaction not found")
	ErrDuplicateId         = errors.New("duplicate transaction id")
	ErrTerminalPhase       = errors.New("transaction is in a terminal phase")
	ErrQuery               = errors.New("phase query failed")
	ErrDelivery            = errors.New("notification delivery failed")
	ErrInvalidSubscription = errors.New("invalid subscription")
	ErrNoSubscription      = errors.New("subscription not found")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	// a failed submission keeps its kind whatever cause it wraps
	{ErrSubmission, "SubmissionError"},
	{ErrInvalidAmount, "InvalidAmountError"},
	{ErrUnsupportedAsset, "UnsupportedAssetError"},
	{ErrUnsupportedChain, "UnsupportedChainError"},
	{ErrUnsupportedProvider, "UnsupportedProviderError"},
	{ErrSameChain, "SameChainError"},
	{ErrInvalidAddress, "InvalidAddressError"},
	{ErrNotFound, "NotFound"},
	{ErrDuplicateId, "DuplicateIdError"},
	{ErrTerminalPhase, "TerminalPhaseError"},
	{ErrQuery, "QueryError"},
	{ErrDelivery, "DeliveryError"},
	{ErrInvalidSubscription, "InvalidSubscriptionError"},
	{ErrNoSubscription, "NotFound"},
}

// ErrorKind names the class of err for API responses. Unknown errors are "InternalError".
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "InternalError"
}

// IsValidationError reports whether err was caused by a bad request rather than a failure downstream.
func IsValidationError(err error) bool {
	if errors.Is(err, ErrSubmission) {
		return false
	}
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrUnsupportedAsset) ||
		errors.Is(err, ErrUnsupportedChain) ||
		errors.Is(err, ErrUnsupportedProvider) ||
		errors.Is(err, ErrSameChain) ||
		errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrInvalidSubscription)
}

// IsNotFound reports whether err means the requested entity does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrSubmission) {
		return false
	}
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoSubscription)
}
