package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/common"
	"github.com/digitorus/pdfmark/config"
	"github.com/digitorus/pdfmark/internal/testpdf"
)

const helperEnv = "PDFMARK_TEST_HELPER"

// The isolated mark path re-executes the test binary as "<exe> worker ...".
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" {
		Run()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

type exitCode int

func patchExit(t *testing.T) {
	t.Helper()
	orig := osExit
	osExit = func(code int) { panic(exitCode(code)) }
	t.Cleanup(func() { osExit = orig })
}

func patchArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"pdfmark"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func expectExit(t *testing.T, code int, fn func()) {
	t.Helper()
	defer func() {
		assert.Equal(t, exitCode(code), recover())
	}()
	fn()
}

func TestRunUsage(t *testing.T) {
	patchExit(t)

	for name, args := range map[string][]string{
		"no command":      nil,
		"unknown command": {"sign"},
		"help":            {"help"},
	} {
		t.Run(name, func(t *testing.T) {
			patchArgs(t, args...)
			expectExit(t, 1, Run)
		})
	}
}

func TestMarkCommandFlags(t *testing.T) {
	var gotInput, gotOutput string
	var got MarkOptions

	orig := MarkPDF
	MarkPDF = func(input, output string, opts MarkOptions) {
		gotInput, gotOutput, got = input, output, opts
	}
	defer func() { MarkPDF = orig }()

	patchArgs(t, "mark",
		"-text", "DRAFT {{Year}}",
		"-font-size", "18",
		"-padding-w", "5",
		"-padding-h", "7.5",
		"-rot-deg", "-30",
		"-hardened",
		"-isolate",
		"-timeout", "5s",
		"in.pdf", "out.pdf")
	MarkCommand()

	assert.Equal(t, "in.pdf", gotInput)
	assert.Equal(t, "out.pdf", gotOutput)
	assert.Equal(t, MarkOptions{
		Text:     "DRAFT {{Year}}",
		FontSize: 18,
		PaddingW: 5,
		PaddingH: 7.5,
		Rotation: -30,
		Hardened: true,
		Isolate:  true,
		Timeout:  5 * time.Second,
	}, got)
}

func TestMarkCommandMissingArgs(t *testing.T) {
	patchExit(t)
	patchArgs(t, "mark", "-text", "DRAFT", "in.pdf")

	orig := MarkPDF
	MarkPDF = func(string, string, MarkOptions) { t.Fatal("MarkPDF called without output") }
	defer func() { MarkPDF = orig }()

	expectExit(t, 1, MarkCommand)
}

func TestMarkOptionsParams(t *testing.T) {
	opts := MarkOptions{Text: "Copy {{Year}}", FontSize: 20, PaddingW: 25.4, PaddingH: 10, Rotation: 45}
	p := opts.params()

	assert.Equal(t, "Copy "+time.Now().Format("2006"), p.Text)
	assert.InDelta(t, 72, p.PaddingW, 1e-9)
	assert.InDelta(t, 28.3464566929, p.PaddingH, 1e-9)
	assert.Equal(t, 45.0, p.Rotation)
}

func markFiles(t *testing.T, input []byte, opts MarkOptions) (string, error) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	require.NoError(t, os.WriteFile(in, input, 0o600))
	return out, runMark(in, out, opts)
}

func TestRunMark(t *testing.T) {
	t.Setenv(helperEnv, "1")
	input := testpdf.Simple()

	for name, isolated := range map[string]bool{"direct": false, "isolated": true} {
		t.Run(name, func(t *testing.T) {
			out, err := markFiles(t, input, MarkOptions{
				Text: "CONFIDENTIAL", FontSize: 24, PaddingW: 10, PaddingH: 10, Rotation: 45,
				Isolate: isolated, Timeout: 30 * time.Second,
			})
			require.NoError(t, err)

			data, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, input))

			doc, err := pdfmark.OpenFile(out)
			require.NoError(t, err)
			defer doc.Close()
			assert.Equal(t, 1, doc.NumPages())
		})
	}
}

func TestRunMarkMalformed(t *testing.T) {
	t.Setenv(helperEnv, "1")

	for name, isolated := range map[string]bool{"direct": false, "isolated": true} {
		t.Run(name, func(t *testing.T) {
			out, err := markFiles(t, testpdf.Garbage(), MarkOptions{
				Text: "CONFIDENTIAL", FontSize: 24, Isolate: isolated, Timeout: 30 * time.Second,
			})
			var mi *common.MalformedInputError
			require.ErrorAs(t, err, &mi)

			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr), "no output on failure")
		})
	}
}

func TestRunMarkInvalidParams(t *testing.T) {
	t.Setenv(helperEnv, "1")

	for _, text := range []string{"", "A\x00B"} {
		for name, isolated := range map[string]bool{"direct": false, "isolated": true} {
			t.Run(name, func(t *testing.T) {
				_, err := markFiles(t, testpdf.Simple(), MarkOptions{Text: text, FontSize: 24, Isolate: isolated, Timeout: 30 * time.Second})
				var pe *common.ParamError
				assert.ErrorAs(t, err, &pe)
			})
		}
	}
}

func TestRunMarkMissingInput(t *testing.T) {
	err := runMark(filepath.Join(t.TempDir(), "missing.pdf"), "-", MarkOptions{Text: "X", FontSize: 12})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarkPDFExitsOnFailure(t *testing.T) {
	patchExit(t)
	expectExit(t, 1, func() {
		markPDFImpl(filepath.Join(t.TempDir(), "missing.pdf"), "-", MarkOptions{Text: "X", FontSize: 12})
	})
}

func TestServeCommandInvalidConfig(t *testing.T) {
	patchExit(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.local.toml"), []byte("bind_address = \"\"\n"), 0o600))
	patchArgs(t, "serve", "-config-dir", dir)

	expectExit(t, 1, ServeCommand)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	NewLogger(config.Log{Level: "debug", Format: "text"}, &buf).Debug("hello", "pages", 3)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "pages=3")

	buf.Reset()
	logger := NewLogger(config.Log{Level: "info", Format: "json"}, &buf)
	logger.Debug("dropped")
	logger.Info("hello")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}
