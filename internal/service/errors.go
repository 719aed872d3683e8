package service

import "errors"

var (
	ErrSessionNotFound        = errors.New("navigation session not found")
	ErrAlertNotFound          = errors.New("emergency alert not found")
	ErrInvalidAlertTransition = errors.New("invalid emergency alert transition")
)
