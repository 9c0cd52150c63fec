package db

import "errors"

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("object not found")

// ContentTypeJSON is the content type of every record the engine writes.
const ContentTypeJSON = "application/json"
