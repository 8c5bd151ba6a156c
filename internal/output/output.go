// Package output writes the JSON envelope used by the CLI's --json mode.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Error codes for failed commands.
const (
	ErrNotFound   = "NOT_FOUND"
	ErrValidation = "VALIDATION"
	ErrFileError  = "FILE_ERROR"
	ErrInternal   = "INTERNAL"
)

// ErrReported is returned after an error envelope was written, so callers can
// exit non-zero without printing the error a second time.
var ErrReported = errors.New("error already reported")

// Writer receives all output. Tests may replace it.
var Writer io.Writer = os.Stdout

// Response is the JSON envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Items   any    `json:"items,omitempty"`
	Count   int    `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// JSON writes resp as indented JSON.
func JSON(resp Response) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(Writer, string(data))
	return err
}

// Success writes a single record.
func Success(data any, message string) error {
	return JSON(Response{Success: true, Data: data, Message: message})
}

// SuccessMultiple writes a list of records. items must be a slice.
func SuccessMultiple[T any](items []T) error {
	if items == nil {
		items = []T{}
	}
	return JSON(Response{Success: true, Items: items, Count: len(items)})
}

// SuccessMessage writes a success envelope carrying only a message.
func SuccessMessage(message string) error {
	return JSON(Response{Success: true, Message: message})
}

// Error writes an error envelope and returns ErrReported.
func Error(code, message string) error {
	if err := JSON(Response{Success: false, Error: message, Code: code}); err != nil {
		return err
	}
	return ErrReported
}
