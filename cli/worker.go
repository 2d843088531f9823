package cli

import (
	"os"

	"github.com/digitorus/pdfmark/isolate"
)

// WorkerCommand is the child process of the isolated mode. It is not meant
// to be run by hand.
func WorkerCommand() {
	osExit(isolate.RunWorker(os.Args[2:], os.Stdin, os.Stdout, os.Stderr))
}
