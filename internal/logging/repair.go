package logging

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/JonMunkholm/csvrepair/internal/repair"
)

// StageHook returns a repair.StageHook that logs every pipeline stage at
// debug level with its before/after byte counts.
func StageHook(logger *slog.Logger) repair.StageHook {
	return func(stage repair.Stage, before, after int) {
		logger.Debug("repair stage",
			"stage", string(stage),
			"bytes_before", before,
			"bytes_after", after,
			"bytes_removed", before-after,
		)
	}
}

// LogResult writes the per-repair summary line.
func LogResult(ctx context.Context, logger *slog.Logger, m repair.Metrics) {
	logger.InfoContext(ctx, "repair complete",
		"original_encoding", string(m.DetectedEncoding),
		"bytes_before", m.OriginalBytes,
		"bytes_after", m.FinalBytes,
		"reduction_ratio", strconv.FormatFloat(m.ReductionRatio(), 'f', 4, 64),
	)
}
