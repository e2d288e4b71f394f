package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrSyncNotConfigured is returned when a project has no enabled Redmine link
	ErrSyncNotConfigured = errors.New("redmine sync is not configured for this project")

	// ErrNothingToSync is returned by bulk sync when every task already has an issue
	ErrNothingToSync = errors.New("no unsynced tasks")

	// ErrRemoteProjectNotFound is returned by setup when the identifier is not on the Redmine instance
	ErrRemoteProjectNotFound = errors.New("redmine project not found")

	// ErrArchiveUnavailable is returned when report archiving has no storage configured
	ErrArchiveUnavailable = errors.New("report archive storage is not configured")
)

// notFound translates gorm's missing-record error into ErrNotFound naming the entity
func notFound(err error, entity string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", entity, err)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
