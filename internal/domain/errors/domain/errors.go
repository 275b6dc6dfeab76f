// Package domain provides domain-specific error definitions and utilities.
package domain

import "errors"

// Document-related errors.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentExists   = errors.New("document already exists")
)

// Job-related errors.
var (
	ErrJobNotFound          = errors.New("upload job not found")
	ErrJobNotRetryable      = errors.New("upload job is not in a retryable state")
	ErrInvalidStateChange   = errors.New("invalid job state transition")
	ErrInvalidStageChange   = errors.New("invalid job stage transition")
	ErrJobAlreadyClaimed    = errors.New("upload job is already claimed")
	ErrRetryBudgetExhausted = errors.New("upload job retry budget exhausted")
)

// Event-related errors.
var (
	ErrInvalidEventVocabulary = errors.New("event code, type, or severity not recognized")
	ErrEventJobUnresolvable   = errors.New("event job could not be resolved to a document")
)

// General domain errors.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)
