package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")

	// ErrBusy: a receipt submission is already in flight; new submissions
	// are blocked until it finishes.
	ErrBusy = errors.New("ingestion already in progress")

	// ErrNoImage: submission attempted without a receipt image.
	ErrNoImage = errors.New("no receipt image provided")

	// ErrEmptyOCR: the OCR engine produced empty or whitespace-only text.
	ErrEmptyOCR = errors.New("ocr produced no text")

	// ErrUnknownEstablishment: no keyword matched; extraction must not
	// guess a grammar.
	ErrUnknownEstablishment = errors.New("establishment not recognized")

	// ErrEstablishmentRejected: the user declined the detected establishment.
	ErrEstablishmentRejected = errors.New("establishment rejected by user")

	// ErrNoSession: no user identity to select the target collections.
	ErrNoSession = errors.New("missing session context")

	// ErrInsufficientStock: a withdrawal would drive stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
