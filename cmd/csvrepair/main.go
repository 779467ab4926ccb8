// Command csvrepair repairs, inspects and scans CSV files from the shell.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/JonMunkholm/csvrepair/internal/core"
	"github.com/JonMunkholm/csvrepair/internal/history"
	"github.com/JonMunkholm/csvrepair/internal/logging"
	"github.com/JonMunkholm/csvrepair/internal/repair"
)

const version = "0.1.0"

// errRiskyFound makes scan exit with status 2.
var errRiskyFound = errors.New("risky fields found")

// CLI defines the command-line interface for csvrepair.
type CLI struct {
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Minimum log level (logs go to stderr)"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log format"`

	Repair  RepairCmd  `cmd:"" help:"Repair a CSV file"`
	Detect  DetectCmd  `cmd:"" help:"Report the encoding of a file without repairing it"`
	Scan    ScanCmd    `cmd:"" help:"List fields that would run as spreadsheet formulas"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// streams carries the process I/O so commands can run under test.
type streams struct {
	in  io.Reader
	out io.Writer
}

// read returns the contents of path, or stdin when path is "-".
func (s *streams) read(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(s.in)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// RepairOptions are the pipeline flags shared by repair and scan.
type RepairOptions struct {
	LineEnding     string `name:"line-ending" default:"lf" enum:"lf,crlf" help:"Output line terminator"`
	TranscodeUTF16 bool   `name:"transcode-utf16" help:"Decode UTF-16 input instead of dropping its NUL bytes"`
	StripNulls     bool   `name:"strip-nulls" help:"Remove NUL bytes before UTF-8 decoding"`
	StrictRisk     bool   `name:"strict-risk" help:"Only flag formula triggers in the first byte of a field"`
}

func (o RepairOptions) service() *core.Service {
	opts := core.DefaultOptions()
	opts.Pipeline.LineEnding, _ = repair.ParseLineEnding(o.LineEnding)
	opts.Pipeline.TranscodeUTF16 = o.TranscodeUTF16
	opts.Pipeline.StripNulls = o.StripNulls
	opts.Guard = repair.InjectionGuard{SkipLeadingSpace: !o.StrictRisk}
	opts.MaxConcurrent = 1
	return core.NewService(history.NewMemStore(1), opts)
}

// RepairCmd repairs a file and writes the result.
type RepairCmd struct {
	Path          string `arg:"" help:"CSV file to repair, or - for stdin"`
	Output        string `name:"output" short:"o" help:"Write to this file instead of stdout" type:"path"`
	RepairOptions `embed:""`
}

func (c *RepairCmd) Run(s *streams) error {
	data, err := s.read(c.Path)
	if err != nil {
		return err
	}

	name := c.Path
	if name == "-" {
		name = "stdin"
	}
	report, err := c.service().Repair(context.Background(), name, data)
	if err != nil {
		return err
	}

	if c.Output == "" {
		_, err = s.out.Write(report.Output)
		return err
	}
	if err := os.WriteFile(c.Output, report.Output, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", c.Output, err)
	}
	return nil
}

// DetectCmd prints the encoding tag of a file.
type DetectCmd struct {
	Path string `arg:"" help:"File to inspect, or - for stdin"`
	JSON bool   `name:"json" help:"Print JSON"`
}

func (c *DetectCmd) Run(s *streams) error {
	data, err := s.read(c.Path)
	if err != nil {
		return err
	}

	info := core.Inspect(data)
	if c.JSON {
		return json.NewEncoder(s.out).Encode(info)
	}
	_, err = fmt.Fprintf(s.out, "encoding:   %s\nbom_length: %d\nbytes:      %d\nnul_bytes:  %d\n",
		info.Encoding, info.BOMLength, info.Bytes, info.NulBytes)
	return err
}

// ScanCmd repairs a file in memory and lists risky fields. It exits with
// status 2 when any are found.
type ScanCmd struct {
	Path          string `arg:"" help:"CSV file to scan, or - for stdin"`
	JSON          bool   `name:"json" help:"Print JSON"`
	RepairOptions `embed:""`
}

func (c *ScanCmd) Run(s *streams) error {
	data, err := s.read(c.Path)
	if err != nil {
		return err
	}

	risky, err := c.service().Scan(context.Background(), data)
	if err != nil {
		return err
	}

	if c.JSON {
		if err := json.NewEncoder(s.out).Encode(risky); err != nil {
			return err
		}
	} else {
		for _, f := range risky {
			if _, err := fmt.Fprintf(s.out, "%d:%d\t%s\n", f.Line, f.Column, f.Value); err != nil {
				return err
			}
		}
	}

	if len(risky) > 0 {
		return fmt.Errorf("%w: %d", errRiskyFound, len(risky))
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(s *streams) error {
	_, err := fmt.Fprintf(s.out, "csvrepair version %s\n", version)
	return err
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("csvrepair"),
		kong.Description("Repair CSV byte streams: BOMs, NULs, line endings and control characters"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	slog.SetDefault(logging.New(os.Stderr, cli.LogLevel, cli.LogFormat))

	err := ctx.Run(&streams{in: os.Stdin, out: os.Stdout})
	if errors.Is(err, errRiskyFound) {
		os.Exit(2)
	}
	if err != nil {
		slog.Debug("command failed", "command", ctx.Command(), "error", err)
		ctx.Fatalf("%s", describe(err))
	}
}

// describe renders err for the terminal. Errors with a support code get the
// friendly message and suggested action after the technical detail.
func describe(err error) string {
	if !core.IsUserFacing(err) {
		return err.Error()
	}
	return fmt.Sprintf("%v\n%s", err, core.FormatUserError(err))
}
