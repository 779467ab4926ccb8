package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvrepair/internal/core"
	"github.com/JonMunkholm/csvrepair/internal/repair"
)

// run parses args and runs the selected command with stdin as input.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("csvrepair"),
		kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }),
	)
	require.NoError(t, err)

	ctx, err := parser.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	err = ctx.Run(&streams{in: strings.NewReader(stdin), out: &out})
	return out.String(), err
}

func createTestFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestRepairCmd_Stdin(t *testing.T) {
	out, err := run(t, "id,name\r\n1,test\x00\r\n", "repair", "-")
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,test\n", out)
}

func TestRepairCmd_FileToFile(t *testing.T) {
	in := createTestFile(t, "in.csv", []byte("\xEF\xBB\xBFa,b\rc,d"))
	dest := filepath.Join(t.TempDir(), "out.csv")

	out, err := run(t, "", "repair", in, "-o", dest, "--line-ending", "crlf")
	require.NoError(t, err)
	assert.Empty(t, out)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "a,b\r\nc,d", string(got))
}

func TestRepairCmd_TranscodeUTF16(t *testing.T) {
	in := createTestFile(t, "wide.csv", []byte{0xFF, 0xFE, 'h', 0, 0xE9, 0, '\n', 0})

	out, err := run(t, "", "repair", in, "--transcode-utf16")
	require.NoError(t, err)
	assert.Equal(t, "hé\n", out)
}

func TestRepairCmd_MissingFile(t *testing.T) {
	_, err := run(t, "", "repair", filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDetectCmd(t *testing.T) {
	out, err := run(t, "\xEF\xBB\xBFa,b\n", "detect", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "encoding:   utf8_with_bom")
	assert.Contains(t, out, "bom_length: 3")
}

func TestDetectCmd_JSON(t *testing.T) {
	out, err := run(t, "a\x00b\x00", "detect", "-", "--json")
	require.NoError(t, err)

	var got core.DetectReport
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, repair.EncodingLikelyUTF16, got.Encoding)
	assert.Equal(t, 2, got.NulBytes)
}

func TestScanCmd(t *testing.T) {
	t.Run("clean input", func(t *testing.T) {
		out, err := run(t, "a,b\n1,2\n", "scan", "-")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("risky fields exit with errRiskyFound", func(t *testing.T) {
		out, err := run(t, "a,b\n=1+1,ok\nx,\" @SUM\"\n", "scan", "-")
		require.ErrorIs(t, err, errRiskyFound)
		assert.Equal(t, "2:1\t=1+1\n3:2\t @SUM\n", out)
	})

	t.Run("strict risk ignores leading space", func(t *testing.T) {
		out, err := run(t, "x, @SUM\n", "scan", "-", "--strict-risk")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("json", func(t *testing.T) {
		out, err := run(t, "-5\n", "scan", "-", "--json")
		require.ErrorIs(t, err, errRiskyFound)
		var got []core.RiskyField
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "-5", got[0].Value)
	})
}

func TestDescribe(t *testing.T) {
	t.Run("unmapped error is printed as is", func(t *testing.T) {
		_, err := run(t, "", "repair", filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
		assert.Equal(t, err.Error(), describe(err))
	})

	t.Run("mapped error adds code and action", func(t *testing.T) {
		err := fmt.Errorf("repair timeout.csv: %w", repair.ErrInputTooLarge)
		got := describe(err)
		assert.True(t, strings.HasPrefix(got, "repair timeout.csv: input too large"), got)
		assert.Contains(t, got, "(Code: FILE001)")
		assert.Contains(t, got, core.MapError(err).Action)
	})
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "csvrepair version "+version+"\n", out)
}
