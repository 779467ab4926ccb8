// Package history records one entry per repair run.
//
// Two stores are provided: PgStore persists runs in PostgreSQL through a pgx
// pool, and MemStore keeps a bounded in-process log for deployments without a
// database (and for tests).
package history

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/JonMunkholm/csvrepair/internal/repair"
)

// ErrNotFound is returned by Get when no run has the requested ID.
var ErrNotFound = errors.New("repair run not found")

// Run is a single recorded repair.
type Run struct {
	ID               uuid.UUID       `json:"id"`
	FileName         string          `json:"fileName,omitempty"`
	DetectedEncoding repair.Encoding `json:"detectedEncoding"`
	OriginalBytes    int             `json:"originalBytes"`
	FinalBytes       int             `json:"finalBytes"`
	RiskyFields      int             `json:"riskyFields"`
	InputDigest      string          `json:"inputDigest"`
	OutputDigest     string          `json:"outputDigest"`
	IPAddress        string          `json:"ipAddress,omitempty"`
	UserAgent        string          `json:"userAgent,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// ReductionRatio reports FinalBytes / OriginalBytes for the run.
func (r Run) ReductionRatio() float64 {
	return repair.Metrics{OriginalBytes: r.OriginalBytes, FinalBytes: r.FinalBytes}.ReductionRatio()
}

// Store persists repair runs.
type Store interface {
	// Record saves run. A nil ID is replaced with a new UUID and a zero
	// CreatedAt with the current time.
	Record(ctx context.Context, run *Run) error

	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]Run, error)

	// Get returns the run with id or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Run, error)
}

// Digest returns the hex BLAKE3-256 digest of b.
func Digest(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// prepare fills the server-assigned fields of run.
func prepare(run *Run) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}
