package domain

import "errors"

var (
	// ErrKeyNotFound is returned by document stores for absent keys.
	ErrKeyNotFound = errors.New("document key not found")
	// ErrUserNotFound is returned when a user id resolves to nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrQuestionnaireNotFound indicates an unknown questionnaire id.
	ErrQuestionnaireNotFound = errors.New("questionnaire not found")
	// ErrAnswerNotFound indicates an unknown answer id.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrPaymentNotFound indicates an unknown payment id.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrImageNotFound indicates a missing externalized image.
	ErrImageNotFound = errors.New("image not found")
	// ErrInvalidImage indicates a malformed data-URL payload.
	ErrInvalidImage = errors.New("invalid inline image data")
	// ErrWithdrawalPending rejects a second withdrawal while one is queued.
	ErrWithdrawalPending = errors.New("withdrawal already pending")
	// ErrBelowMinimum rejects a withdrawal under the configured threshold.
	ErrBelowMinimum = errors.New("pending balance below withdrawal minimum")
	// ErrWithdrawalQuota rejects a withdrawal past the monthly cap.
	ErrWithdrawalQuota = errors.New("monthly withdrawal limit reached")
)
