package models

import "errors"

// Sentinel errors returned by the fetcher and service layers. Handlers
// translate these into HTTP statuses with errors.Is.
var (
	// ErrNotFound indicates a valid request for a post that does not
	// exist or is unpublished. A normal outcome, not a failure.
	ErrNotFound = errors.New("post not found")

	// ErrNotConfigured indicates missing Notion credentials or database ID.
	ErrNotConfigured = errors.New("notion source not configured")

	// ErrSchemaMissingProperty indicates the Notion database lacks a
	// required property (e.g. the Published checkbox).
	ErrSchemaMissingProperty = errors.New("required property missing from database schema")
)
