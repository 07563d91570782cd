package canonicaljson

import "errors"

var (
	ErrUnsupportedType = errors.New("canonicaljson: unsupported type")
	ErrFloatNotAllowed = errors.New("canonicaljson: non-integer numbers not allowed")
	ErrNonStringMapKey = errors.New("canonicaljson: map keys must be strings")
	ErrKeyCollision    = errors.New("canonicaljson: duplicate key after normalization")
)
