package interfaces

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors shared by every repository backend. Backends wrap them with
// goerr so that callers can use errors.Is.
var (
	ErrNotFound = goerr.New("not found")
	ErrConflict = goerr.New("already exists")
)
