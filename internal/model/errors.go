package model

import "errors"

// Common errors used across the application
var (
	// Participant errors
	ErrParticipantNotFound = errors.New("participant not found")

	// Zone errors
	ErrUnknownZone = errors.New("unknown zone")

	// Persistence errors
	ErrRecordNotFound = errors.New("player record not found")
)
