package core

// # Error Codes Reference
//
// User-friendly error messages carry a code for support reference. When a
// user quotes the code, support can find the failing category quickly.
//
// # Database Errors (DB004-DB006)
//
// Raised by the PostgreSQL history store:
//
//	DB004 - Connection refused: Unable to reach the history database
//	        Patterns: "connection refused"
//
//	DB005 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset"
//
//	DB006 - Timeout: Operation timed out
//	        Patterns: "timeout"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: Input exceeds the configured size limit
//	          Patterns: "file too large", "input too large"
//
//	FILE004 - No file: No file or body was provided
//	          Patterns: "no file provided"
//
// # Repair Errors (UPL002-UPL005)
//
// The codes keep the UPL prefix support already knows from uploads:
//
//	UPL002 - System busy: Too many repairs in progress
//	         Patterns: "too many concurrent repairs"
//
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//
//	UPL005 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # History Errors (HIS001-HIS099)
//
//	HIS001 - Run not found
//	         Patterns: "repair run not found"
//
//	HIS002 - Invalid run ID
//	         Patterns: "invalid repair id"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limit exceeded
//	          Patterns: "rate limit exceeded"
//
// # Fallback (ERR000)
//
// Any error that matches no pattern maps to ERR000.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvrepair/internal/history"
	"github.com/JonMunkholm/csvrepair/internal/repair"
)

// UserMessage is the user-facing rendition of an error.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorPattern struct {
	pattern   string
	sentinels []error
	msg       UserMessage
}

// errorPatterns is checked in order; the first match wins. Specific
// patterns come before generic ones like "timeout". Entries with sentinels
// are matched with errors.Is before any text is compared.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Repair Errors
	// =========================================================================
	{
		pattern:   "too many concurrent repairs",
		sentinels: []error{ErrTooManyRepairs},
		msg: UserMessage{
			Message: "System is busy processing other repairs",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern:   "context canceled",
		sentinels: []error{context.Canceled},
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern:   "context deadline exceeded",
		sentinels: []error{context.DeadlineExceeded},
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// File Errors
	// =========================================================================
	{
		pattern:   "file too large",
		sentinels: []error{ErrFileTooLarge},
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern:   "input too large",
		sentinels: []error{repair.ErrInputTooLarge},
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern:   "no file provided",
		sentinels: []error{ErrNoInput},
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to repair",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// History Errors
	// =========================================================================
	{
		pattern:   "repair run not found",
		sentinels: []error{history.ErrNotFound},
		msg: UserMessage{
			Message: "Repair run not found",
			Action:  "Check the repair ID or list recent runs",
			Code:    "HIS001",
		},
	},
	{
		pattern:   "invalid repair id",
		sentinels: []error{ErrInvalidRunID},
		msg: UserMessage{
			Message: "The repair ID is not valid",
			Action:  "Use the ID returned in the X-Repair-ID header",
			Code:    "HIS002",
		},
	},

	// =========================================================================
	// Database Connection Errors
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},

	// =========================================================================
	// Rate Limiting
	// =========================================================================
	{
		pattern: "rate limit exceeded",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a minute before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known sentinels in the chain win, so text such as a file name inside the
// message cannot change the code. Otherwise matching is case-insensitive on
// the error text, which covers driver errors that have no sentinel.
//
// Example:
//
//	msg := MapError(core.ErrTooManyRepairs)
//	// msg.Code == "UPL002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, ep := range errorPatterns {
		for _, sentinel := range ep.sentinels {
			if errors.Is(err, sentinel) {
				return ep.msg
			}
		}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
