package services

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration covers tournament setups the engine cannot work with.
	ErrConfiguration      = errors.New("invalid tournament configuration")
	ErrTournamentNotFound = fmt.Errorf("%w: tournament not found", ErrConfiguration)
	ErrNotEnoughPlayers   = fmt.Errorf("%w: at least two players are required", ErrConfiguration)
	ErrByePoolExhausted   = fmt.Errorf("%w: every player has already received a bye", ErrConfiguration)

	ErrDuplicateRegistration = errors.New("player name is already registered for this tournament")
	ErrDuplicateTournament   = errors.New("tournament id already exists")

	// ErrPairingExhausted is only returned when rematches are disallowed;
	// otherwise the pairing engine falls back to a forced rematch.
	ErrPairingExhausted = errors.New("no pairing possible without a rematch")

	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidMatch     = errors.New("invalid match report")

	ErrAuthInvalidCredentials = errors.New("invalid organizer password")

	// ErrStorage wraps every failure of the storage collaborator.
	ErrStorage = errors.New("storage failure")
)

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
