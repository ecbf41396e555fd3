package services

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("conflict")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrTaskInProgress      = errors.New("task already started")
	ErrWithdrawalProcessed = errors.New("withdrawal already processed")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrMalformedPayload    = errors.New("malformed payload")
	ErrUpstream            = errors.New("upstream service error")
)
