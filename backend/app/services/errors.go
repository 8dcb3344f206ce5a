package services

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalid          = errors.New("invalid request")
	ErrAlreadyCompleted = errors.New("already completed")
	ErrFull             = errors.New("store is full")
	ErrTooLarge         = errors.New("payload too large")
)
