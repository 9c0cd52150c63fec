package save

import "errors"

// Sentinel errors for record persistence.
var (
	ErrNoSave           = errors.New("no saved player")
	ErrMigrationFailure = errors.New("legacy record migration failed")
	ErrStorageFailure   = errors.New("storage failure")
	ErrNoEncounters     = errors.New("encounter pool is empty")
	ErrInvalidRecord    = errors.New("invalid record")
	ErrInvalidTag       = errors.New("invalid player tag")
)
