// Package templates holds the HTML views of the repair service. Components
// are written in the .templ files; run `templ generate` after editing them.
package templates

//go:generate templ generate

import (
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvrepair/internal/core"
	"github.com/JonMunkholm/csvrepair/internal/repair"
)

// IndexData describes the active configuration shown on the upload form.
type IndexData struct {
	LineEnding     string
	TranscodeUTF16 bool
	MaxInputSize   int64
	HistoryBackend string
}

// ResultData is the view model of a completed form repair.
type ResultData struct {
	Report    *core.Report
	Preview   string
	Truncated bool
}

// historyURL links a report to its JSON history entry.
func historyURL(r *core.Report) templ.SafeURL {
	return templ.URL("/api/history/" + r.ID.String())
}

// byteChange formats the size before and after repair.
func byteChange(m repair.Metrics) string {
	return strconv.Itoa(m.OriginalBytes) + " → " + strconv.Itoa(m.FinalBytes)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}
main{max-width:60rem;margin:auto}h1 a{color:inherit;text-decoration:none}
dl{display:grid;grid-template-columns:max-content 1fr;gap:.25rem 1rem}dt{font-weight:600}
pre{background:#f3f4f6;padding:1rem;overflow:auto;max-height:30rem}
table{border-collapse:collapse}td,th{border:1px solid #d1d5db;padding:.25rem .5rem;text-align:left}
.warn{border-left:4px solid #d97706;padding-left:1rem}
.error{border:1px solid #dc2626;background:#fef2f2;padding:1rem}`
