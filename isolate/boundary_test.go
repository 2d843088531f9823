package isolate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"testing"
	"time"

	pdflib "github.com/digitorus/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/pdfmark/common"
	"github.com/digitorus/pdfmark/geometry"
	"github.com/digitorus/pdfmark/internal/pdf"
	"github.com/digitorus/pdfmark/internal/render"
	"github.com/digitorus/pdfmark/internal/testpdf"
)

const helperEnv = "PDFMARK_TEST_HELPER"

// TestMain turns the test binary into a worker when started by a Boundary
// under test.
func TestMain(m *testing.M) {
	switch os.Getenv(helperEnv) {
	case "worker":
		os.Exit(RunWorker(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
	case "hang":
		time.Sleep(time.Hour)
		os.Exit(ExitOK)
	case "spawn":
		// Leave a process behind that holds stdout.
		child := exec.Command(os.Args[0])
		child.Env = append(os.Environ(), helperEnv+"=hang")
		child.Stdout = os.Stdout
		if err := child.Start(); err != nil {
			os.Exit(ExitFailure)
		}
		_ = os.WriteFile(os.Getenv("HELPER_PIDFILE"), []byte(strconv.Itoa(child.Process.Pid)), 0o600)
		os.Exit(ExitOK)
	case "exit":
		fmt.Fprint(os.Stderr, os.Getenv("HELPER_STDERR"))
		code, _ := strconv.Atoi(os.Getenv("HELPER_CODE"))
		os.Exit(code)
	}
	os.Exit(m.Run())
}

func helperBoundary(mode string, env ...string) *Boundary {
	return &Boundary{
		Path:    os.Args[0],
		Env:     append(append(os.Environ(), helperEnv+"="+mode), env...),
		Timeout: time.Minute,
	}
}

func contentCount(t *testing.T, data []byte) int {
	t.Helper()
	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	contents := r.Page(1).V.Key("Contents")
	if contents.Kind() == pdflib.Array {
		return contents.Len()
	}
	return 1
}

// recordKills records the process groups signaled after a worker exited.
func recordKills(t *testing.T) *[]int {
	t.Helper()
	var killed []int
	orig := killGroup
	killGroup = func(pid int) {
		killed = append(killed, pid)
		orig(pid)
	}
	t.Cleanup(func() { killGroup = orig })
	return &killed
}

func TestExecuteSuccess(t *testing.T) {
	killed := recordKills(t)
	input := testpdf.Simple()
	params := common.Params{Text: "CONFIDENTIAL", FontSize: 12, Rotation: 0}

	outcome := helperBoundary("worker").Execute(context.Background(), input, params)
	require.Equal(t, Success, outcome.Kind, outcome.Detail)
	require.NoError(t, outcome.Err())

	assert.Equal(t, contentCount(t, input)+1, contentCount(t, outcome.Output))

	// The group of a worker that exited cleanly is not signaled, its id
	// may already belong to someone else.
	assert.Empty(t, *killed)
}

func TestExecuteMalformed(t *testing.T) {
	outcome := helperBoundary("worker").Execute(context.Background(), testpdf.Garbage(), common.Params{Text: "X", FontSize: 12})
	assert.Equal(t, MalformedInput, outcome.Kind, outcome.Detail)
	assert.Empty(t, outcome.Output)

	var mi *common.MalformedInputError
	assert.ErrorAs(t, outcome.Err(), &mi)
}

func TestExecuteInvalidParams(t *testing.T) {
	outcome := helperBoundary("worker").Execute(context.Background(), testpdf.Simple(), common.Params{Text: "X", FontSize: 0})
	assert.Equal(t, InternalFailure, outcome.Kind)
	assert.Contains(t, outcome.Detail, "invalid font_size")
}

func TestExecuteOversizedFontAt45Degrees(t *testing.T) {
	input := testpdf.Simple()
	params := common.Params{Text: "CONFIDENTIAL", FontSize: 1000, Rotation: 45}

	outcome := helperBoundary("worker").Execute(context.Background(), input, params)
	require.Equal(t, Success, outcome.Kind, outcome.Detail)

	w := render.FromParams(params)
	tw, th := render.TileSize(w)
	require.Greater(t, tw, testpdf.Letter[2])
	columns, rows := geometry.TileGrid(w.Rotation, testpdf.Letter[2], testpdf.Letter[3], tw, th)
	assert.Equal(t, 1, columns)
	assert.GreaterOrEqual(t, rows, 1)

	r, err := pdflib.NewReader(bytes.NewReader(outcome.Output), int64(len(outcome.Output)))
	require.NoError(t, err)
	ops, err := pdf.ReadContent(r.Page(1).V)
	require.NoError(t, err)

	var placements int
	for _, op := range ops {
		if op.Operator == "Tm" {
			placements++
		}
	}
	assert.Equal(t, columns*rows, placements)
}

func TestExecuteExitCodes(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		stderr string
		kind   Kind
		detail string
	}{
		{"failure with cause", 1, "boom\n", InternalFailure, "boom"},
		{"failure without cause", 1, "", InternalFailure, "without a diagnostic"},
		{"malformed", 2, "", MalformedInput, ""},
		{"runtime crash", 2, "panic: oops\n\ngoroutine 1 [running]:", InternalFailure, "worker crashed: panic: oops"},
		{"unknown code", 3, "", InternalFailure, "exit status 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := helperBoundary("exit", "HELPER_CODE="+strconv.Itoa(tt.code), "HELPER_STDERR="+tt.stderr)
			outcome := b.Execute(context.Background(), testpdf.Simple(), common.Params{Text: "X", FontSize: 12})
			assert.Equal(t, tt.kind, outcome.Kind)
			assert.Contains(t, outcome.Detail, tt.detail)
			assert.Empty(t, outcome.Output)
		})
	}
}

func TestExecuteStartFailure(t *testing.T) {
	b := &Boundary{Path: "/nonexistent/pdfmark-worker"}
	outcome := b.Execute(context.Background(), testpdf.Simple(), common.Params{Text: "X", FontSize: 12})
	assert.Equal(t, InternalFailure, outcome.Kind)
	assert.Contains(t, outcome.Detail, "failed to start worker")
}

func TestExecuteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := helperBoundary("hang")
	b.OnStart = func(int) { cancel() }

	outcome := b.Execute(ctx, testpdf.Simple(), common.Params{Text: "X", FontSize: 12})
	assert.Equal(t, InternalFailure, outcome.Kind)
	assert.Contains(t, outcome.Detail, "canceled")
}

func TestOutcomeErr(t *testing.T) {
	assert.NoError(t, Outcome{Kind: Success}.Err())
	assert.True(t, errors.Is(Outcome{Kind: Timeout}.Err(), ErrTimeout))

	var ife *InternalFailureError
	require.ErrorAs(t, Outcome{Kind: InternalFailure, Detail: "x"}.Err(), &ife)
	assert.Equal(t, "x", ife.Detail)
	assert.Equal(t, "internal failure: x", ife.Error())

	assert.Equal(t, "malformed input", MalformedInput.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestWorkerArgs(t *testing.T) {
	params := common.Params{
		Text:     "-- not a flag",
		FontSize: 12.5,
		PaddingW: geometry.FromMillimeters(10),
		PaddingH: geometry.FromMillimeters(3),
		Rotation: -30,
		Hardened: true,
	}
	args := WorkerArgs(params, 1<<20)

	assert.Equal(t, "--text=-- not a flag", args[0])
	assert.Equal(t, "--font-size=12.5", args[1])
	assert.Equal(t, "--padding-w=10", args[2])
	assert.Equal(t, "--padding-h=3", args[3])
	assert.Equal(t, "--rot-deg=-30", args[4])
	assert.Equal(t, []string{"--hardened", "--memory-limit=1048576"}, args[5:])

	assert.Len(t, WorkerArgs(common.Params{}, 0), 5)
	assert.Equal(t, "--padding-w=0", WorkerArgs(common.Params{}, 0)[2])
}

func TestFormatMillimeters(t *testing.T) {
	tests := map[float64]string{
		geometry.FromMillimeters(10):    "10",
		geometry.FromMillimeters(3):     "3",
		geometry.FromMillimeters(2.5):   "2.5",
		geometry.FromMillimeters(0.001): "0.001",
		geometry.FromInches(1):          "25.4",
		0:                               "0",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatMillimeters(in), "formatMillimeters(%v)", in)
	}
}

func TestRunWorker(t *testing.T) {
	input := testpdf.Simple()
	args := WorkerArgs(common.Params{Text: "CONFIDENTIAL", FontSize: 24, Rotation: 45}, 0)

	var stdout, stderr bytes.Buffer
	code := RunWorker(args, bytes.NewReader(input), &stdout, &stderr)
	require.Equal(t, ExitOK, code, stderr.String())
	assert.True(t, bytes.HasPrefix(stdout.Bytes(), input))
	assert.Empty(t, stderr.String())
}

func TestRunWorkerFailures(t *testing.T) {
	valid := WorkerArgs(common.Params{Text: "X", FontSize: 12}, 0)

	tests := []struct {
		name   string
		args   []string
		input  []byte
		code   int
		stderr string
	}{
		{"malformed", valid, testpdf.Garbage(), ExitMalformed, ""},
		{"unknown flag", []string{"--bogus"}, testpdf.Simple(), ExitFailure, "flag provided but not defined"},
		{"invalid text", []string{"--font-size=12"}, testpdf.Simple(), ExitFailure, "invalid text"},
		{"missing media box", valid, testpdf.Document{Pages: []testpdf.Page{{}}}.Bytes(), ExitFailure, "no usable page size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := RunWorker(tt.args, bytes.NewReader(tt.input), &stdout, &stderr)
			assert.Equal(t, tt.code, code)
			assert.Empty(t, stdout.Bytes())
			if tt.stderr == "" {
				assert.Empty(t, stderr.String())
			} else {
				assert.Contains(t, stderr.String(), tt.stderr)
			}
		})
	}
}

func TestLimitedBuffer(t *testing.T) {
	b := &limitedBuffer{limit: 4}
	n, err := b.Write([]byte("abc"))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = b.Write([]byte("def"))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	_, _ = b.Write([]byte("ghi"))
	assert.Equal(t, "abcd [truncated]", b.String())
}
