package session

import "errors"

var (
	// ErrSessionAlreadyActive is returned when the user already has a running session.
	ErrSessionAlreadyActive = errors.New("session already active")
	// ErrChoiceTimedOut is returned when the player did not pick an option in time.
	ErrChoiceTimedOut = errors.New("choice timed out")
	// ErrContinueTimedOut is returned when the player did not answer continue/rest in time.
	ErrContinueTimedOut = errors.New("continue timed out")
	// ErrCharacterTimedOut is returned when the character builder was not completed in time.
	ErrCharacterTimedOut = errors.New("character creation timed out")
)
