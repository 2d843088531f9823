package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/common"
	"github.com/digitorus/pdfmark/geometry"
	"github.com/digitorus/pdfmark/internal/render"
	"github.com/digitorus/pdfmark/isolate"
)

// MarkOptions are the flags of the mark command.
type MarkOptions struct {
	Text     string
	FontSize float64
	PaddingW float64 // millimeters
	PaddingH float64 // millimeters
	Rotation float64
	Hardened bool

	Isolate bool
	Timeout time.Duration
}

func MarkCommand() {
	var opts MarkOptions
	markFlags := flag.NewFlagSet("mark", flag.ExitOnError)

	markFlags.StringVar(&opts.Text, "text", "", "Watermark text, may contain {{Date}}, {{Time}} and {{Year}}")
	markFlags.Float64Var(&opts.FontSize, "font-size", 24, "Font size in points")
	markFlags.Float64Var(&opts.PaddingW, "padding-w", 10, "Horizontal padding between tiles in millimeters")
	markFlags.Float64Var(&opts.PaddingH, "padding-h", 10, "Vertical padding between tiles in millimeters")
	markFlags.Float64Var(&opts.Rotation, "rot-deg", 45, "Counter-clockwise rotation in degrees")
	markFlags.BoolVar(&opts.Hardened, "hardened", false, "Encrypt the output so it cannot be printed, copied or modified")
	markFlags.BoolVar(&opts.Isolate, "isolate", false, "Process the document in a worker process")
	markFlags.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Time limit of the worker process")

	markFlags.Usage = func() {
		fmt.Printf("Usage: %s mark [options] <input.pdf> <output.pdf>\n\n", os.Args[0])
		fmt.Println("Place a tiled text watermark on every page of a PDF file")
		fmt.Println("Use - as input or output for stdin or stdout")
		fmt.Println("\nOptions:")
		markFlags.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("  %s mark -text CONFIDENTIAL input.pdf output.pdf\n", os.Args[0])
		fmt.Printf("  %s mark -text \"Printed {{Date}}\" -rot-deg 30 -isolate - - < in.pdf > out.pdf\n", os.Args[0])
	}

	if err := markFlags.Parse(os.Args[2:]); err != nil {
		log.Printf("Failed to parse mark flags: %v", err)
		osExit(1)
	}

	if len(markFlags.Args()) < 2 {
		markFlags.Usage()
		osExit(1)
		return
	}

	MarkPDF(markFlags.Arg(0), markFlags.Arg(1), opts)
}

// MarkPDF watermarks input into output and exits on failure.
var MarkPDF = markPDFImpl

func markPDFImpl(input, output string, opts MarkOptions) {
	if err := runMark(input, output, opts); err != nil {
		log.Println(err)
		osExit(1)
	}
}

func runMark(input, output string, opts MarkOptions) error {
	data, err := readInput(input)
	if err != nil {
		return err
	}

	params := opts.params()
	if err := params.Validate(); err != nil {
		return err
	}

	var out []byte
	if opts.Isolate {
		b := &isolate.Boundary{Args: []string{"worker"}, Timeout: opts.Timeout}
		outcome := b.Execute(context.Background(), data, params)
		if err := outcome.Err(); err != nil {
			return err
		}
		out = outcome.Output
	} else {
		if out, err = pdfmark.Mark(data, params); err != nil {
			return err
		}
	}

	return writeOutput(output, out)
}

// params converts the options to points and expands the template variables.
func (opts MarkOptions) params() common.Params {
	return common.Params{
		Text:     render.ExpandTemplateVariables(opts.Text, render.TemplateContext{}),
		FontSize: opts.FontSize,
		PaddingW: geometry.FromMillimeters(opts.PaddingW),
		PaddingH: geometry.FromMillimeters(opts.PaddingH),
		Rotation: opts.Rotation,
		Hardened: opts.Hardened,
	}
}

func readInput(input string) ([]byte, error) {
	if input == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(input)
}

func writeOutput(output string, data []byte) error {
	if output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(output, data, 0o644)
}
