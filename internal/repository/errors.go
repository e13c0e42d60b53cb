package repository

import "errors"

// Repository errors shared by every entity instantiation
var (
	// ErrNotFound means no row matched the given condition
	ErrNotFound = errors.New("entity not found")
	// ErrAlreadyExists means the exists-condition matched or a uniqueness
	// constraint was violated
	ErrAlreadyExists = errors.New("entity already exists")
	// ErrNotTracked means update was called on an instance the store does
	// not recognize, without a fallback condition
	ErrNotTracked = errors.New("entity is not tracked, provide a condition to find the record")
)
