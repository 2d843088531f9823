package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/digitorus/pdfmark/config"
	"github.com/digitorus/pdfmark/server"
)

func ServeCommand() {
	serveFlags := flag.NewFlagSet("serve", flag.ExitOnError)

	var configDir string
	serveFlags.StringVar(&configDir, "config-dir", config.DefaultLocation, "Directory holding settings.<RUN_MODE> and settings.local")

	serveFlags.Usage = func() {
		fmt.Printf("Usage: %s serve [options]\n\n", os.Args[0])
		fmt.Println("Run the watermark HTTP service")
		fmt.Println("\nOptions:")
		serveFlags.PrintDefaults()
	}

	if err := serveFlags.Parse(os.Args[2:]); err != nil {
		log.Printf("Failed to parse serve flags: %v", err)
		osExit(1)
	}

	c, err := config.Load(configDir)
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}

	logger := NewLogger(c.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := server.New(c, logger)
	if err := s.ListenAndServe(ctx, c.BindAddress, c.Utils.MaxConnections); err != nil {
		logger.Error("server stopped", "error", err)
		osExit(1)
	}
}

// NewLogger returns a logger writing to w in the configured format.
func NewLogger(c config.Log, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
