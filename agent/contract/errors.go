package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
	ErrQueryRejected   = errors.New("query rejected: read-only statements only")
	ErrRetrieval       = errors.New("retrieval request failed")
)
