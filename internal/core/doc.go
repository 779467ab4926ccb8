// Package core provides the business logic around the CSV repair pipeline.
//
// The byte-level stages live in package repair, which has no I/O. This
// package is what the web handlers and the CLI call: it bounds concurrency,
// scans repaired output for formula-injection fields, records every run in a
// history store and maps technical errors to user-facing messages.
//
// # Service
//
// [Service] is the main entry point:
//
//	svc := core.NewService(history.NewMemStore(0), core.DefaultOptions())
//	report, err := svc.Repair(ctx, "export.csv", raw)
//	if err != nil {
//	    msg := core.MapError(err)
//	    ...
//	}
//	w.Write(report.Output)
//
// A repair acquires a slot from the [RepairLimiter], runs the pipeline with a
// stage hook that logs at debug level, scans the output with the configured
// [repair.InjectionGuard] and records a [history.Run] with BLAKE3 digests of
// the input and output. A failure to record history is logged and does not
// fail the repair.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB004-DB006: Database connectivity for the history store
//   - FILE001, FILE004: Input too large, no input
//   - UPL002, UPL004, UPL005: Busy, cancelled, timed out
//   - HIS001-HIS002: History lookups
//   - RATE001: Rate limiting
package core
