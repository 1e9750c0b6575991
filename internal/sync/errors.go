package sync

import "errors"

var (
	// ErrUpdateRejected is recorded when the store reports that an update
	// was not applied.
	ErrUpdateRejected = errors.New("store rejected update")

	// ErrNoRecordID is recorded when the store creates a record but returns
	// no ID for it.
	ErrNoRecordID = errors.New("store returned no record id")
)
