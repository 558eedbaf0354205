// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package tenhou

import "fmt"

// ErrInvalidJSON is returned when the input text is not a well-formed
// tenhou.net/6 document. It wraps the underlying decoder diagnostic.
type ErrInvalidJSON struct {
	Err error
}

func (e *ErrInvalidJSON) Error() string {
	return fmt.Sprintf("invalid json: %v", e.Err)
}

func (e *ErrInvalidJSON) Unwrap() error {
	return e.Err
}

// ErrNotThreePlayer is returned when a structurally valid document
// declares a four-player game.
type ErrNotThreePlayer struct {
	Disp string
}

func (e *ErrNotThreePlayer) Error() string {
	return fmt.Sprintf("not a three-player game: rule %q", e.Disp)
}

// ErrInvalidHoraDetail is returned when a round's result array claims a
// win but a detail pair does not have the required shape. The whole
// document decode aborts.
type ErrInvalidHoraDetail struct {
	KyokuNum int
	Honba    int
}

func (e *ErrInvalidHoraDetail) Error() string {
	return fmt.Sprintf("invalid hora detail in kyoku %d honba %d", e.KyokuNum, e.Honba)
}

// Error code constants for work queue rows.
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeNotThreePlayer    = "NOT_THREE_PLAYER"
	ErrCodeInvalidHoraDetail = "INVALID_HORA_DETAIL"
	ErrCodeUnknown           = "UNKNOWN"
)

// ErrorCode returns the error code string for a given error.
func ErrorCode(err error) string {
	switch err.(type) {
	case *ErrInvalidJSON:
		return ErrCodeInvalidJSON
	case *ErrNotThreePlayer:
		return ErrCodeNotThreePlayer
	case *ErrInvalidHoraDetail:
		return ErrCodeInvalidHoraDetail
	default:
		return ErrCodeUnknown
	}
}
