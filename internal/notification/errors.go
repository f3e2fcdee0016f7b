package notification

import "errors"

var (
	ErrRecipientNotFound         = errors.New("notification recipient not found")
	ErrSubjectNotFound           = errors.New("notification subject not found")
	ErrLedgerWriteFailed         = errors.New("notification ledger write failed")
	ErrInvalidActionForAlertType = errors.New("invalid action for alert type")
)
