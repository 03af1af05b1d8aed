package memory

import "errors"

// Sentinel errors for durable store operations.
var (
	ErrStoreMissing = errors.New("memory: store file does not exist")
	ErrStoreCorrupt = errors.New("memory: store file is not a JSON object of strings")
	ErrFlushFailed  = errors.New("memory: flush failed")

	// ErrInvalidEncoding rejects keys or values that JSON cannot carry intact.
	ErrInvalidEncoding = errors.New("memory: key and value must be valid UTF-8")
)
