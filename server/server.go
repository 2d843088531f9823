// Package server exposes watermarking over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"
	"golang.org/x/net/netutil"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/common"
	"github.com/digitorus/pdfmark/config"
	"github.com/digitorus/pdfmark/geometry"
	"github.com/digitorus/pdfmark/isolate"
)

// MarkFunc watermarks a document.
type MarkFunc func(ctx context.Context, input []byte, params common.Params) ([]byte, error)

// Direct watermarks in the server process. It cannot be interrupted once
// started.
func Direct() MarkFunc {
	return func(ctx context.Context, input []byte, params common.Params) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return pdfmark.Mark(input, params)
	}
}

// Isolated watermarks in a worker process started by b.
func Isolated(b *isolate.Boundary) MarkFunc {
	return func(ctx context.Context, input []byte, params common.Params) ([]byte, error) {
		outcome := b.Execute(ctx, input, params)
		if err := outcome.Err(); err != nil {
			return nil, err
		}
		return outcome.Output, nil
	}
}

// Server handles watermark requests.
type Server struct {
	Mark        MarkFunc
	MaxBodySize int64
	Logger      *slog.Logger
}

// New returns a Server configured from c.
func New(c config.Config, logger *slog.Logger) *Server {
	mark := Direct()
	if c.Isolate {
		mark = Isolated(&isolate.Boundary{
			Path:        c.Utils.WorkerPath,
			Args:        []string{"worker"},
			Timeout:     c.Utils.MarkPDFTimeout(),
			MemoryLimit: c.Utils.WorkerMemoryLimitByte,
			Logger:      logger,
		})
	}
	return &Server{
		Mark:        mark,
		MaxBodySize: c.Utils.MarkPDFMaxSizeByte,
		Logger:      logger,
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /utils/mark", s.handleMark)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	return s.logRequests(mux)
}

func (s *Server) handleMark(w http.ResponseWriter, r *http.Request) {
	logger := s.logger()

	params, err := ParseParams(r.URL.Query())
	if err != nil {
		writeProblem(w, r, problemFor(err))
		return
	}

	body := r.Body
	if s.MaxBodySize > 0 {
		body = http.MaxBytesReader(w, r.Body, s.MaxBodySize)
	}
	input, err := io.ReadAll(body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if !errors.As(err, &maxBytesErr) {
			logger.Warn("failed to read request body", "error", err)
		}
		writeProblem(w, r, problemFor(err))
		return
	}

	output, err := s.Mark(r.Context(), input, params)
	if err != nil {
		problem := problemFor(err)
		if problem.Status >= http.StatusInternalServerError {
			logger.Error("failed to mark document", "error", err, "size", len(input))
		} else {
			logger.Info("rejected document", "type", problem.Type, "error", err)
		}
		writeProblem(w, r, problem)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(output)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, bytes.NewReader(output))
}

// ParseParams reads the watermark parameters from a query string. Paddings
// are given in millimeters.
func ParseParams(q url.Values) (common.Params, error) {
	var params common.Params

	params.Text = q.Get("text")
	if params.Text == "" {
		return params, &common.ParamError{Field: "text", Msg: "is required"}
	}

	numbers := []struct {
		field string
		dst   *float64
	}{
		{"font_size", &params.FontSize},
		{"padding_w", &params.PaddingW},
		{"padding_h", &params.PaddingH},
		{"rot_deg", &params.Rotation},
	}
	for _, n := range numbers {
		raw := q.Get(n.field)
		if raw == "" {
			return params, &common.ParamError{Field: n.field, Msg: "is required"}
		}
		v, err := govalidator.ToFloat(raw)
		if err != nil {
			return params, &common.ParamError{Field: n.field, Msg: fmt.Sprintf("%q is not a number", raw)}
		}
		*n.dst = v
	}
	params.PaddingW = geometry.FromMillimeters(params.PaddingW)
	params.PaddingH = geometry.FromMillimeters(params.PaddingH)

	if raw := q.Get("hardened"); raw != "" {
		hardened, err := govalidator.ToBoolean(raw)
		if err != nil {
			return params, &common.ParamError{Field: "hardened", Msg: fmt.Sprintf("%q is not a boolean", raw)}
		}
		params.Hardened = hardened
	}

	return params, params.Validate()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger().Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. maxConns bounds concurrent connections when positive.
func (s *Server) ListenAndServe(ctx context.Context, addr string, maxConns int) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger().Handler(), slog.LevelWarn),
	}

	errc := make(chan error, 1)
	go func() {
		s.logger().Info("listening", "address", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
