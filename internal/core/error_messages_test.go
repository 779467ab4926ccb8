package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/csvrepair/internal/history"
	"github.com/JonMunkholm/csvrepair/internal/repair"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "limiter rejection",
			err:         fmt.Errorf("acquire repair slot: %w", ErrTooManyRepairs),
			wantCode:    "UPL002",
			wantMessage: "System is busy processing other repairs",
		},
		{
			name:        "pipeline size limit",
			err:         fmt.Errorf("repair big.csv: %w", repair.ErrInputTooLarge),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:        "request body too large",
			err:         ErrFileTooLarge,
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:        "no input",
			err:         ErrNoInput,
			wantCode:    "FILE004",
			wantMessage: "No file was selected",
		},
		{
			name:        "history not found",
			err:         fmt.Errorf("history entry: %w", history.ErrNotFound),
			wantCode:    "HIS001",
			wantMessage: "Repair run not found",
		},
		{
			name:        "invalid history id",
			err:         ErrInvalidRunID,
			wantCode:    "HIS002",
			wantMessage: "The repair ID is not valid",
		},
		{
			name:        "cancelled context",
			err:         fmt.Errorf("acquire repair slot: %w", context.Canceled),
			wantCode:    "UPL004",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "deadline exceeded beats generic timeout",
			err:         errors.New("context deadline exceeded (timeout)"),
			wantCode:    "UPL005",
			wantMessage: "Request timed out",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "generic timeout",
			err:         errors.New("i/o timeout"),
			wantCode:    "DB006",
			wantMessage: "Operation timed out",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "sentinel wins over file name text",
			err:         fmt.Errorf("repair timeout.csv: %w", repair.ErrInputTooLarge),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:        "sentinel wins over earlier pattern in text",
			err:         fmt.Errorf("history entry for no file provided.csv: %w", history.ErrNotFound),
			wantCode:    "HIS001",
			wantMessage: "Repair run not found",
		},
		{
			name:        "cancellation inside a connection refused message",
			err:         fmt.Errorf("scan connection refused.csv: %w", context.Canceled),
			wantCode:    "UPL004",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("CONNECTION RESET by peer"),
			wantCode:    "DB005",
			wantMessage: "Database connection was interrupted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrTooManyRepairs)

	expected := "System is busy processing other repairs (Code: UPL002). Please wait a moment and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrNoInput, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
