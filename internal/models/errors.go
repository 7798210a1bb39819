package models

import "errors"

// Store-level sentinels. Repositories wrap these so callers can match with errors.Is.
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrConditionFailed = errors.New("conditional update matched no rows")
)
