package isolate

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/common"
	"github.com/digitorus/pdfmark/geometry"
)

// RunWorker is the child side of Boundary. It reads a document from stdin,
// writes the watermarked document to stdout and returns the exit code.
func RunWorker(args []string, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	defer func() {
		if rec := recover(); rec != nil {
			fmt.Fprintf(stderr, "worker panic: %v", rec)
			code = ExitFailure
		}
	}()

	var (
		params      common.Params
		paddingW    float64
		paddingH    float64
		memoryLimit int64
	)

	flags := flag.NewFlagSet("worker", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&params.Text, "text", "", "Watermark text")
	flags.Float64Var(&params.FontSize, "font-size", 0, "Font size in points")
	flags.Float64Var(&paddingW, "padding-w", 0, "Horizontal padding in millimeters")
	flags.Float64Var(&paddingH, "padding-h", 0, "Vertical padding in millimeters")
	flags.Float64Var(&params.Rotation, "rot-deg", 0, "Rotation in degrees")
	flags.BoolVar(&params.Hardened, "hardened", false, "Re-encrypt the output with a lock-down policy")
	flags.Int64Var(&memoryLimit, "memory-limit", 0, "Soft memory limit in bytes")

	if err := flags.Parse(args); err != nil {
		return ExitFailure
	}
	params.PaddingW = geometry.FromMillimeters(paddingW)
	params.PaddingH = geometry.FromMillimeters(paddingH)

	if memoryLimit > 0 {
		debug.SetMemoryLimit(memoryLimit)
	}

	input, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read input: %v", err)
		return ExitFailure
	}

	output, err := pdfmark.Mark(input, params)
	if err != nil {
		var malformed *common.MalformedInputError
		if errors.As(err, &malformed) {
			return ExitMalformed
		}
		fmt.Fprint(stderr, err)
		return ExitFailure
	}

	if _, err := stdout.Write(output); err != nil {
		fmt.Fprintf(stderr, "failed to write output: %v", err)
		return ExitFailure
	}
	return ExitOK
}
