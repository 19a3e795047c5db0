// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g. sqlstore) inside this directory.
package repository

import "errors"

// ErrNotFound is returned by lookups that match no stored row.
var ErrNotFound = errors.New("not found")
