package filesmanager

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrUnauthorized indicates a missing or unresolvable token
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation indicates a malformed or incomplete request
	ErrValidation = errors.New("validation failed")

	// ErrParentNotFound indicates the requested parent does not exist
	ErrParentNotFound = errors.New("parent not found")

	// ErrParentNotFolder indicates the requested parent is not a folder
	ErrParentNotFolder = errors.New("parent is not a folder")

	// ErrNotFound covers missing objects, objects the caller may not see, and
	// objects whose bytes are gone. Callers must not be able to tell them apart.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation indicates content was requested for a folder
	ErrInvalidOperation = errors.New("folder has no content")

	// ErrBlobNotFound indicates a content store has no blob under a key
	ErrBlobNotFound = errors.New("blob not found")

	// ErrQueueFull indicates a bounded queue rejected a job
	ErrQueueFull = errors.New("queue is full")

	// ErrInvalidJob indicates a thumbnail job payload is unusable
	ErrInvalidJob = errors.New("invalid thumbnail job")
)

// ValidationError names the request field that failed validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ObjectError represents an error related to object operations
type ObjectError struct {
	ObjectID uuid.UUID
	Op       string
	Err      error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("object operation %s failed for object %s: %v", e.Op, e.ObjectID, e.Err)
}

func (e *ObjectError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to content store operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
