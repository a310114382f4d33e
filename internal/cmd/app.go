package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/config"
	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
	"github.com/felixgeelhaar/vedic/internal/log"
	"github.com/felixgeelhaar/vedic/internal/metrics"
	"github.com/felixgeelhaar/vedic/internal/pages"
	"github.com/felixgeelhaar/vedic/internal/profiles"
	"github.com/felixgeelhaar/vedic/internal/session"
	"github.com/felixgeelhaar/vedic/internal/storage"
	"github.com/felixgeelhaar/vedic/internal/telemetry"
	"github.com/felixgeelhaar/vedic/internal/version"
)

// App holds everything a command works with. Backend parts are nil for
// offline commands.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	Client   *api.Client
	Session  *session.Store
	Profiles *profiles.Store

	out    io.Writer
	errOut io.Writer
	format string

	expired  sync.Once
	cleanups []func()
}

// newApp loads the configuration and sets up logging, metrics and tracing.
// With backend set it also connects the client and restores the session and
// the selected profile.
func newApp(ctx context.Context, cmd *cobra.Command, backend bool) (*App, error) {
	cfg, err := config.Load(config.Options{File: cfgFile, Flags: cmd.Flags()})
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		format: outputFormat,
	}
	a.setupLogging()
	if err := a.setupMetrics(); err != nil {
		a.Close()
		return nil, err
	}
	a.setupTelemetry(ctx)

	if backend {
		a.setupBackend(ctx)
	}
	return a, nil
}

func (a *App) setupLogging() {
	logCfg := a.Config.Logger(version.GetInfo().Version)
	a.Logger = log.New(logCfg)
	log.SetDefaultLogger(a.Logger)
	a.onClose(func() { _ = logCfg.Output.Close() })
}

// setupMetrics registers the metrics on a private registry, served only when
// an address is configured.
func (a *App) setupMetrics() error {
	a.Registry, a.Metrics = metrics.NewRegistry()
	addr := a.Config.Metrics.Addr
	if addr == "" {
		return nil
	}
	srv, err := metrics.Serve(addr, a.Registry)
	if err != nil {
		return vedicerrors.Wrap(vedicerrors.ErrCodeConfigInvalid, fmt.Sprintf("cannot serve metrics on %s", addr), err).
			WithSuggestion("Pick a free address with --metrics-addr, e.g. 127.0.0.1:9464")
	}
	a.Logger.Info("serving metrics", "addr", srv.Addr())
	a.onClose(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.Logger.Warn("failed to stop metrics server", "error", err)
		}
	})
	return nil
}

func (a *App) setupTelemetry(ctx context.Context) {
	tcfg := a.Config.Telemetry(version.GetInfo().Version)
	shutdown, err := telemetry.InitProvider(ctx, tcfg)
	if err != nil {
		a.Logger.Warn("failed to initialize tracing", "error", err)
		return
	}
	if tcfg.Enabled {
		a.Logger.Info("tracing enabled", "endpoint", tcfg.Endpoint)
	}
	a.onClose(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			a.Logger.Warn("failed to flush traces", "error", err)
		}
	})
}

func (a *App) setupBackend(ctx context.Context) {
	info := version.GetInfo()
	a.Client = api.NewClient(a.Config.APIClient(info.UserAgent()),
		api.WithObserver(a.Metrics),
		api.WithTracerProvider(telemetry.GetTracerProvider()),
	)

	st := storage.NewOSFileStore(a.Config.State.Dir)
	a.Session = session.New(ctx, a.Client, st, a.Logger)
	a.Session.OnExpired(a.sessionExpired)
	a.Profiles = profiles.New(a.Client, st, a.Logger)
}

// sessionExpired tells the user once per command and counts every expiry.
func (a *App) sessionExpired() {
	a.Metrics.RecordAuthExpired()
	a.expired.Do(func() {
		fmt.Fprintln(a.errOut, "session expired, run `vedic auth login`")
	})
}

// Close releases what setup acquired, newest first.
func (a *App) Close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

func (a *App) onClose(fn func()) {
	a.cleanups = append(a.cleanups, fn)
}

func (a *App) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return telemetry.StartCommandSpan(ctx, name)
}

func (a *App) finish(span trace.Span, name string, d time.Duration, err error) {
	a.Metrics.RecordCommand(name, d, err)
	if err != nil {
		telemetry.RecordError(span, err)
		a.Metrics.RecordError(err, "cmd")
		a.Logger.Debug("command failed", "command", name, "duration", d, "error", err)
		return
	}
	telemetry.RecordSuccess(span)
	a.Logger.Debug("command finished", "command", name, "duration", d)
}

// requireSession fails unless a token is held.
func (a *App) requireSession() error {
	if !a.Session.Authenticated() {
		return vedicerrors.NewAuthRequiredError()
	}
	return nil
}

// requireProfile fails unless logged in with a profile selected.
func (a *App) requireProfile() (*api.Profile, error) {
	if err := a.requireSession(); err != nil {
		return nil, err
	}
	p := a.Profiles.Selected()
	if p == nil {
		return nil, vedicerrors.NewProfileNotSelectedError()
	}
	return p, nil
}

// explain turns client and page errors into coded errors with suggestions.
func (a *App) explain(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := vedicerrors.As(err); ok {
		return err
	}
	var apiErr *api.APIError
	switch {
	case errors.Is(err, pages.ErrNoProfile):
		return vedicerrors.NewProfileNotSelectedError()
	case errors.Is(err, api.ErrAuthExpired):
		return vedicerrors.NewAuthExpiredError(err)
	case errors.Is(err, api.ErrNetwork):
		return vedicerrors.NewNetworkError(a.baseURL(), err)
	case errors.As(err, &apiErr):
		return vedicerrors.NewBackendError(apiErr.Text(), err)
	}
	return err
}

func (a *App) baseURL() string {
	if a.Client != nil {
		return a.Client.BaseURL()
	}
	return a.Config.API.URL
}

// failure returns the error of a failed page load, or nil.
func failure[T any](snap pages.Snapshot[T]) error {
	if snap.State != pages.Error {
		return nil
	}
	if snap.Err != nil {
		return snap.Err
	}
	return errors.New(snap.Message)
}

// resultError turns a failed profile mutation into a coded error.
func (a *App) resultError(res profiles.Result) error {
	if res.Success {
		return nil
	}
	cause := errors.New(res.Error)
	switch res.Code {
	case profiles.CodeNetwork:
		return vedicerrors.NewNetworkError(a.baseURL(), cause)
	case profiles.CodeUnauthorized:
		return vedicerrors.NewAuthExpiredError(cause)
	case profiles.CodeInvalid:
		return vedicerrors.New(vedicerrors.ErrCodeInputInvalid, res.Error)
	default:
		return vedicerrors.New(vedicerrors.ErrCodeProfileSaveFailed, res.Error)
	}
}
