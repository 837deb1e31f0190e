package storage

import "fmt"

// NotFoundError is returned when a requested entity does not exist
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// StorageError wraps a failure of the underlying store. Callers inside
// the scheduler loop treat it as a failed attempt rather than a crash.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr wraps err in a StorageError for the given operation
func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
