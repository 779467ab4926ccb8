package repair

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInputTooLarge is returned by Pipeline.Run when the input exceeds
// Options.MaxInputSize. It is the only failure the pipeline reports.
var ErrInputTooLarge = errors.New("input too large")

// Stage names passed to a StageHook.
type Stage string

const (
	StageDetect     Stage = "detect"
	StageStripBOM   Stage = "strip_bom"
	StageTranscode  Stage = "transcode_utf16"
	StageStripNulls Stage = "strip_nulls"
	StageNormalize  Stage = "normalize"
	StageSanitize   Stage = "sanitize"
	StageLineEnding Stage = "line_ending"
)

// StageHook observes the pipeline. It runs after each stage with the byte
// length before and after that stage. Hooks cannot alter the output.
type StageHook func(stage Stage, before, after int)

// Options configures a Pipeline. The zero value is valid and equals
// DefaultOptions.
type Options struct {
	// LineEnding is the terminator in the output (default LF).
	LineEnding LineEnding

	// TranscodeUTF16 decodes utf16_le, utf16_be and likely_utf16 input as
	// UTF-16 before normalization. When false such input is decoded as UTF-8
	// and the sanitizer drops the interleaved NULs.
	TranscodeUTF16 bool

	// StripNulls removes 0x00 bytes before UTF-8 decode.
	StripNulls bool

	// MaxInputSize bounds Run. Zero or negative means no limit.
	MaxInputSize int64

	// Hook, if set, is called after every stage.
	Hook StageHook
}

// DefaultOptions returns LF output with UTF-16 transcoding off.
func DefaultOptions() Options {
	return Options{LineEnding: LineEndingLF}
}

// Metrics describes one repair for observability. It never feeds back into
// the output bytes.
type Metrics struct {
	OriginalBytes    int      `json:"original_byte_count"`
	FinalBytes       int      `json:"final_byte_count"`
	DetectedEncoding Encoding `json:"detected_encoding"`
}

// ReductionRatio is FinalBytes / OriginalBytes, or 1 for empty input.
func (m Metrics) ReductionRatio() float64 {
	if m.OriginalBytes == 0 {
		return 1
	}
	return float64(m.FinalBytes) / float64(m.OriginalBytes)
}

// Result is the output of a repair. Output is owned by the caller.
type Result struct {
	Output   []byte
	Encoding Encoding
	Metrics  Metrics
}

// Pipeline runs the repair stages with fixed options. It holds no mutable
// state and is safe for concurrent use.
type Pipeline struct {
	opts Options
}

// New creates a Pipeline. An empty LineEnding defaults to LF.
func New(opts Options) *Pipeline {
	if opts.LineEnding == "" {
		opts.LineEnding = LineEndingLF
	}
	return &Pipeline{opts: opts}
}

// Options returns the pipeline's configuration.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Repair runs the pipeline with DefaultOptions.
func Repair(raw []byte) Result {
	return New(DefaultOptions()).Repair(raw)
}

// Run is Repair with the MaxInputSize check applied first.
func (p *Pipeline) Run(raw []byte) (Result, error) {
	if p.opts.MaxInputSize > 0 && int64(len(raw)) > p.opts.MaxInputSize {
		return Result{}, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrInputTooLarge, len(raw), p.opts.MaxInputSize)
	}
	return p.Repair(raw), nil
}

// Repair runs every stage on raw. It never fails and never modifies raw.
func (p *Pipeline) Repair(raw []byte) Result {
	enc := Detect(raw)
	p.observe(StageDetect, len(raw), len(raw))

	body := StripBOM(raw)
	p.observe(StageStripBOM, len(raw), len(body))

	if p.opts.TranscodeUTF16 && enc.IsUTF16() {
		before := len(body)
		body = TranscodeUTF16(body, enc)
		p.observe(StageTranscode, before, len(body))
	}

	if p.opts.StripNulls {
		before := len(body)
		body = RemoveNulls(body)
		p.observe(StageStripNulls, before, len(body))
	}

	text := NormalizeLineEndings(Decode(body))
	p.observe(StageNormalize, len(body), len(text))

	before := len(text)
	text = Sanitize(text)
	// A doubled BOM survives StripBOM as a leading U+FEFF. Left in place it
	// would be stripped on the next run, so the output would not be a fixed
	// point.
	text = strings.TrimLeft(text, "\uFEFF")
	p.observe(StageSanitize, before, len(text))

	if p.opts.LineEnding == LineEndingCRLF {
		before = len(text)
		text = RenderLineEndings(text, LineEndingCRLF)
		p.observe(StageLineEnding, before, len(text))
	}

	out := []byte(text)
	return Result{
		Output:   out,
		Encoding: enc,
		Metrics: Metrics{
			OriginalBytes:    len(raw),
			FinalBytes:       len(out),
			DetectedEncoding: enc,
		},
	}
}

func (p *Pipeline) observe(stage Stage, before, after int) {
	if p.opts.Hook != nil {
		p.opts.Hook(stage, before, after)
	}
}
