package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"
)

// Service is a background component started before the HTTP server and
// stopped after it.
type Service interface {
	Start(ctx context.Context)
	Stop()
}

// Scheduler runs the periodic jobs.
type Scheduler interface {
	Start()
	Stop()
}

type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	l               *applogger.Logger
	scheduler       Scheduler
	httpServer      *xhttp.Server
	services        []Service
	closers         []namedCloser
	shutdownTimeout time.Duration
}

// New creates a new App. scheduler and httpServer may be nil.
func New(l *applogger.Logger, scheduler Scheduler, httpServer *xhttp.Server, shutdownTimeout time.Duration) *App {
	if l == nil {
		l = applogger.Nop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &App{
		l:               l,
		scheduler:       scheduler,
		httpServer:      httpServer,
		shutdownTimeout: shutdownTimeout,
	}
}

// AddService registers a background service.
func (a *App) AddService(s Service) { a.services = append(a.services, s) }

// AddCloser registers a resource closed on shutdown, in reverse order of
// registration.
func (a *App) AddCloser(name string, c io.Closer) {
	if c == nil {
		return
	}
	a.closers = append(a.closers, namedCloser{name: name, c: c})
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	svcCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, s := range a.services {
		s.Start(svcCtx)
	}

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.l.Error("http server start error", applogger.Error(err))
			a.shutdown()
			return err
		}
	}

	if a.scheduler != nil {
		a.scheduler.Start()
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops the scheduler first so no refresh publishes into a
// closing sink, then HTTP, then background services and resources.
func (a *App) shutdown() error {
	var errs []error

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		if err := a.httpServer.Stop(ctx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
		cancel()
	}

	for i := len(a.services) - 1; i >= 0; i-- {
		a.services[i].Stop()
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.c.Close(); err != nil {
			a.l.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}
