package domain

import "errors"

var (
	ErrNotFound      = errors.New("entity not found")
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidSchema = errors.New("invalid avro schema")
	ErrMissingDoc    = errors.New("record and field elements must carry a doc")
)
