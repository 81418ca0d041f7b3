// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. Note
// that absence of rows is NOT always an error here: idempotent
// operations like purging tickets for a table treat zero affected
// rows as a successful no-op, and only lookups of a specific record
// surface ErrNotFound.
package repository

import "errors"

// ErrNotFound is returned when a specific record (ticket, ticket item,
// product) does not exist. Handlers translate this into an HTTP 404
// response for reads and targeted updates; bulk deletes never return it.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a write is attempted with a missing or
// malformed required field (table reference, quantity, status). Handlers
// translate this into an HTTP 400 response. No partial write occurs.
var ErrValidation = errors.New("validation failed")
