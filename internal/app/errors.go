package service

import "errors"

// ErrNotStarted is returned by operations that need a loaded model.
var ErrNotStarted = errors.New("service not started")
