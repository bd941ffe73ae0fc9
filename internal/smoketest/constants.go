package smoketest

import "time"

// HTTP status code constants.
const (
	StatusOK         = 200
	StatusBadRequest = 400
)

// Runner configuration constants.
const (
	DefaultRecords      = 500
	DefaultDeterminism  = 20
	DefaultTimeout      = 10 * time.Second
	WorkerMultiplier    = 2
	probabilityEpsilon  = 1e-9
	maxAttempts         = 5
	retryBackoff        = 250 * time.Millisecond
	filePermission      = 0o600
	directoryPermission = 0o750
)
