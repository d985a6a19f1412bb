package store

import "errors"

// ErrClosed is reported when an action reaches a store that has been torn down.
var ErrClosed = errors.New("store is closed")
