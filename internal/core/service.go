package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvrepair/internal/history"
	"github.com/JonMunkholm/csvrepair/internal/logging"
	"github.com/JonMunkholm/csvrepair/internal/repair"
)

var (
	// ErrNoInput is returned by callers that received no file or body.
	ErrNoInput = errors.New("no file provided")

	// ErrFileTooLarge is returned by callers whose read limit was hit before
	// the pipeline saw the input.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidRunID is returned by HistoryEntry for malformed IDs.
	ErrInvalidRunID = errors.New("invalid repair id")
)

// MaxReportedRiskyFields caps Report.RiskyFields. Report.RiskyCount always
// holds the full count.
const MaxReportedRiskyFields = 100

// Options configures a Service.
type Options struct {
	Pipeline repair.Options
	Guard    repair.InjectionGuard

	MaxConcurrent int
	MaxWait       time.Duration

	DefaultHistoryLimit int
	MaxHistoryLimit     int
}

// DefaultOptions matches the defaults of the environment configuration.
func DefaultOptions() Options {
	return Options{
		Pipeline:            repair.DefaultOptions(),
		Guard:               repair.DefaultInjectionGuard,
		MaxConcurrent:       DefaultMaxConcurrentRepairs,
		MaxWait:             DefaultMaxWaitTime,
		DefaultHistoryLimit: 50,
		MaxHistoryLimit:     500,
	}
}

// Report is the outcome of Service.Repair.
type Report struct {
	ID             uuid.UUID      `json:"id"`
	FileName       string         `json:"fileName,omitempty"`
	Output         []byte         `json:"-"`
	Metrics        repair.Metrics `json:"metrics"`
	ReductionRatio float64        `json:"reductionRatio"`
	RiskyCount     int            `json:"riskyCount"`
	RiskyFields    []RiskyField   `json:"riskyFields"`
	InputDigest    string         `json:"inputDigest"`
	OutputDigest   string         `json:"outputDigest"`
	Duration       time.Duration  `json:"-"`
	Recorded       bool           `json:"recorded"`
}

// DetectReport describes raw input without repairing it.
type DetectReport struct {
	Encoding  repair.Encoding `json:"encoding"`
	BOMLength int             `json:"bomLength"`
	Bytes     int             `json:"bytes"`
	NulBytes  int             `json:"nulBytes"`
}

// Service runs repairs with bounded concurrency and records each run.
type Service struct {
	opts    Options
	limiter *RepairLimiter
	store   history.Store
}

// NewService creates a Service. A nil store falls back to an in-memory one.
func NewService(store history.Store, opts Options) *Service {
	if store == nil {
		store = history.NewMemStore(0)
	}
	if opts.Pipeline.LineEnding == "" {
		opts.Pipeline.LineEnding = repair.LineEndingLF
	}
	if opts.DefaultHistoryLimit <= 0 {
		opts.DefaultHistoryLimit = 50
	}
	if opts.MaxHistoryLimit < opts.DefaultHistoryLimit {
		opts.MaxHistoryLimit = opts.DefaultHistoryLimit
	}

	return &Service{
		opts:    opts,
		limiter: NewRepairLimiter(opts.MaxConcurrent, opts.MaxWait),
		store:   store,
	}
}

// Options returns the service configuration.
func (s *Service) Options() Options {
	return s.opts
}

// pipeline builds a pipeline whose stage hook logs through logger.
func (s *Service) pipeline(logger *slog.Logger) *repair.Pipeline {
	opts := s.opts.Pipeline
	opts.Hook = logging.StageHook(logger)
	return repair.New(opts)
}

// Repair repairs raw, scans the result for risky fields and records the
// run. name is informational and may be empty.
func (s *Service) Repair(ctx context.Context, name string, raw []byte) (*Report, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("acquire repair slot: %w", err)
	}
	defer s.limiter.Release()

	start := time.Now()
	id := uuid.New()
	logger := logging.WithFields(ctx, "repair_id", id.String(), "file", name)

	res, err := s.pipeline(logger).Run(raw)
	if err != nil {
		return nil, fmt.Errorf("repair %s: %w", displayName(name), err)
	}

	risky, err := scanFields(ctx, res.Output, s.opts.Guard)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("scan %s: %w", displayName(name), ctxErr)
		}
		logger.Warn("risky field scan incomplete", "error", err)
	}

	report := &Report{
		ID:             id,
		FileName:       name,
		Output:         res.Output,
		Metrics:        res.Metrics,
		ReductionRatio: res.Metrics.ReductionRatio(),
		RiskyCount:     len(risky),
		RiskyFields:    truncateRisky(risky),
		InputDigest:    history.Digest(raw),
		OutputDigest:   history.Digest(res.Output),
	}

	meta := RequestMetaFromContext(ctx)
	run := &history.Run{
		ID:               id,
		FileName:         name,
		DetectedEncoding: res.Encoding,
		OriginalBytes:    res.Metrics.OriginalBytes,
		FinalBytes:       res.Metrics.FinalBytes,
		RiskyFields:      len(risky),
		InputDigest:      report.InputDigest,
		OutputDigest:     report.OutputDigest,
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
	}
	if err := s.store.Record(ctx, run); err != nil {
		logger.Warn("failed to record repair history", "error", err)
	} else {
		report.Recorded = true
	}

	report.Duration = time.Since(start)
	logging.LogResult(ctx, logger, res.Metrics)
	if report.RiskyCount > 0 {
		logger.Info("risky fields found", "count", report.RiskyCount)
	}

	return report, nil
}

// Detect inspects raw without repairing it.
func (s *Service) Detect(raw []byte) DetectReport {
	return Inspect(raw)
}

// Inspect reports the encoding tag and byte statistics of raw.
func Inspect(raw []byte) DetectReport {
	return DetectReport{
		Encoding:  repair.Detect(raw),
		BOMLength: repair.BOMLength(raw),
		Bytes:     len(raw),
		NulBytes:  repair.CountNulls(raw),
	}
}

// Scan repairs data and returns the risky fields of the repaired output.
// Nothing is recorded in history.
func (s *Service) Scan(ctx context.Context, data []byte) ([]RiskyField, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("acquire repair slot: %w", err)
	}
	defer s.limiter.Release()

	res, err := s.pipeline(logging.FromContext(ctx)).Run(data)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	risky, err := scanFields(ctx, res.Output, s.opts.Guard)
	if err != nil {
		return nil, err
	}
	if risky == nil {
		risky = []RiskyField{}
	}
	return risky, nil
}

// History returns recent runs, newest first. limit is clamped to the
// configured bounds; zero or negative selects the default.
func (s *Service) History(ctx context.Context, limit int) ([]history.Run, error) {
	switch {
	case limit <= 0:
		limit = s.opts.DefaultHistoryLimit
	case limit > s.opts.MaxHistoryLimit:
		limit = s.opts.MaxHistoryLimit
	}

	runs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return runs, nil
}

// HistoryEntry returns the run with the given ID.
func (s *Service) HistoryEntry(ctx context.Context, id string) (*history.Run, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRunID, id)
	}

	run, err := s.store.Get(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("history entry %s: %w", parsed, err)
	}
	return run, nil
}

// LimiterStatus returns the current repair limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForRepairs blocks until in-flight repairs finish or ctx is done.
func (s *Service) WaitForRepairs(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func truncateRisky(risky []RiskyField) []RiskyField {
	if risky == nil {
		return []RiskyField{}
	}
	if len(risky) > MaxReportedRiskyFields {
		return risky[:MaxReportedRiskyFields]
	}
	return risky
}

func displayName(name string) string {
	if name == "" {
		return "input"
	}
	return name
}
