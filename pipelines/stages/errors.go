// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"fmt"

	"github.com/mdhender/tenlog/tenhou"
)

// ErrWriteFile is returned when file I/O operations fail.
type ErrWriteFile struct {
	Op   string // mkdir, write, read
	Path string
	Err  error
}

func (e *ErrWriteFile) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ErrWriteFile) Unwrap() error {
	return e.Err
}

// ErrDatabase is returned when database operations fail.
type ErrDatabase struct {
	Op  string
	Err error
}

func (e *ErrDatabase) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *ErrDatabase) Unwrap() error {
	return e.Err
}

// Error code constants for database storage.
const (
	ErrCodeWriteFile = "WRITE_FILE"
	ErrCodeDatabase  = "DATABASE"
	ErrCodeUnknown   = "UNKNOWN"
)

// ErrorCode returns the error code string for a given error. Decode
// errors carry their own codes; pipeline errors carry these.
func ErrorCode(err error) string {
	switch err.(type) {
	case *ErrWriteFile:
		return ErrCodeWriteFile
	case *ErrDatabase:
		return ErrCodeDatabase
	}
	return tenhou.ErrorCode(err)
}
