package usecase

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrConfigurationIncomplete means the emitter URL or API key is missing
	ErrConfigurationIncomplete = goerr.New("configuration incomplete")

	// ErrInvalidUserRecord rejects a remote record before anything is written
	ErrInvalidUserRecord = goerr.New("invalid user record")
)
