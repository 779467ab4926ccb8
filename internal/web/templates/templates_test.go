package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvrepair/internal/core"
	"github.com/JonMunkholm/csvrepair/internal/repair"
)

func TestIndex(t *testing.T) {
	var buf bytes.Buffer
	err := Index(IndexData{
		LineEnding:     "crlf",
		MaxInputSize:   100 * 1024 * 1024,
		HistoryBackend: "memory",
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `action="/repair"`)
	assert.Contains(t, out, `name="file"`)
	assert.Contains(t, out, "crlf")
	assert.Contains(t, out, "100.0 MiB")
	assert.Contains(t, out, "memory")
}

func TestResult_EscapesUserContent(t *testing.T) {
	report := &core.Report{
		ID:       uuid.New(),
		FileName: "<script>.csv",
		Metrics: repair.Metrics{
			OriginalBytes:    10,
			FinalBytes:       8,
			DetectedEncoding: repair.EncodingUTF8,
		},
		ReductionRatio: 0.8,
		RiskyCount:     1,
		RiskyFields:    []core.RiskyField{{Record: 1, Line: 1, Column: 1, Value: "=<b>"}},
	}

	var buf bytes.Buffer
	err := Result(ResultData{Report: report, Preview: "a,<i>\n", Truncated: true}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<i>")
	assert.Contains(t, out, "&lt;script&gt;.csv")
	assert.Contains(t, out, "=&lt;b&gt;")
	assert.Contains(t, out, "0.8000")
	assert.Contains(t, out, "/api/history/"+report.ID.String())
	assert.Contains(t, out, "Preview truncated")
}

func TestLayout_RendersChildren(t *testing.T) {
	var buf bytes.Buffer
	ctx := templ.WithChildren(context.Background(), templ.Raw("<p>inner</p>"))
	require.NoError(t, Layout("A & B").Render(ctx, &buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!doctype html>"), out)
	assert.Contains(t, out, "<title>A &amp; B</title>")
	assert.Contains(t, out, `<h1><a href="/">CSV Repair</a></h1><p>inner</p></main>`)
}

func TestResult_RiskyFields(t *testing.T) {
	report := &core.Report{
		ID:          uuid.New(),
		RiskyCount:  3,
		RiskyFields: []core.RiskyField{{Record: 2, Line: 4, Column: 2, Value: "+SUM(A1)"}},
	}

	t.Run("listed and capped", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Result(ResultData{Report: report}).Render(context.Background(), &buf))

		out := buf.String()
		assert.Contains(t, out, "Repaired input")
		assert.Contains(t, out, "3 risky field(s)")
		assert.Contains(t, out, "<tr><td>4</td><td>2</td><td><code>+SUM(A1)</code></td></tr>")
		assert.Contains(t, out, "Showing the first 1.")
		assert.NotContains(t, out, "Preview truncated")
	})

	t.Run("section omitted when clean", func(t *testing.T) {
		clean := &core.Report{ID: uuid.New()}
		var buf bytes.Buffer
		require.NoError(t, Result(ResultData{Report: clean}).Render(context.Background(), &buf))
		assert.NotContains(t, buf.String(), `class="warn"`)
	})
}

func TestErrorAlert_OmitsEmptyParts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert("Only message", "", "").Render(context.Background(), &buf))
	assert.Equal(t, `<div class="error" role="alert"><strong>Only message</strong></div>`, buf.String())
}

func TestErrorPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorPage("Bad thing", "Do something", "ERR000").Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, `role="alert"`)
	assert.Contains(t, out, "Bad thing")
	assert.Contains(t, out, "Code: ERR000")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{104857600, "100.0 MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}
