package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/spark-heimdall/heimdall/internal/device"
	"github.com/spark-heimdall/heimdall/internal/infrastructure/config"
)

const (
	defaultGracefulTimeout = 5 * time.Second

	// waitDelay bounds how long Wait keeps copying output after the viewer
	// exits while a grandchild still holds the pipe.
	waitDelay = 2 * time.Second
)

// Session describes the running viewer.
type Session struct {
	DeviceID   string          `json:"device_id"`
	DeviceName string          `json:"device_name"`
	Protocol   device.Protocol `json:"protocol"`
	PID        int             `json:"pid"`
	StartedAt  time.Time       `json:"started_at"`
}

// Config holds the launcher settings.
type Config struct {
	// Clients locates the viewer executables.
	Clients config.ClientsConfig

	// GracefulTimeout is how long to wait after SIGTERM before SIGKILL.
	GracefulTimeout time.Duration

	// OnStart is called after a viewer started.
	OnStart func(Session)

	// OnStop is called once per session when its viewer exits. err is nil
	// when the session was closed through Disconnect, Connect or Close.
	// It must not call back into the Launcher's Connect or Disconnect.
	OnStop func(s Session, err error)
}

// Logger defines the logging interface for the launcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type session struct {
	info          Session
	cmd           *exec.Cmd
	done          chan struct{}
	stopRequested bool
}

// Launcher owns the single viewer session.
type Launcher struct {
	config Config
	logger Logger

	// opMu serialises Connect, Disconnect and Close so that a connect
	// never overlaps the teardown of the previous viewer.
	opMu sync.Mutex

	mu      sync.Mutex
	clients config.ClientsConfig
	current *session
}

// New creates a launcher.
func New(cfg Config) *Launcher {
	if cfg.GracefulTimeout <= 0 {
		cfg.GracefulTimeout = defaultGracefulTimeout
	}
	return &Launcher{
		config:  cfg,
		logger:  noopLogger{},
		clients: cfg.Clients,
	}
}

// SetLogger sets the logger for the launcher.
func (l *Launcher) SetLogger(logger Logger) {
	l.logger = logger
}

// SetClients replaces the viewer settings used by later connects.
func (l *Launcher) SetClients(clients config.ClientsConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clients = clients
}

// Current returns the running session, if any.
func (l *Launcher) Current() (Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return Session{}, false
	}
	return l.current.info, true
}

// Connect starts the viewer for d, closing any session that is open. The
// viewer outlives ctx; ctx only bounds the teardown of the old session.
func (l *Launcher) Connect(ctx context.Context, d device.Device) (Session, error) {
	l.mu.Lock()
	clients := l.clients
	l.mu.Unlock()

	command, err := BuildCommand(clients, d)
	if err != nil {
		return Session{}, err
	}

	l.opMu.Lock()
	defer l.opMu.Unlock()

	if _, err := l.stopCurrent(ctx); err != nil {
		return Session{}, err
	}

	l.logger.Info("starting viewer",
		"device_id", d.ID,
		"device", d.Name,
		"protocol", d.Protocol,
		"binary", command.Binary,
	)
	l.logger.Debug("viewer arguments", "args", command.Args)

	cmd := exec.Command(command.Binary, command.Args...) //nolint:gosec // Viewer path comes from the operator's config file

	// Own process group so disconnect reaches every child of the viewer.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = &logWriter{logger: l.logger, stream: "stdout", device: d.ID}
	cmd.Stderr = &logWriter{logger: l.logger, stream: "stderr", device: d.ID}
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		return Session{}, fmt.Errorf("starting %s viewer: %w", d.Protocol, err)
	}

	s := &session{
		info: Session{
			DeviceID:   d.ID,
			DeviceName: d.Name,
			Protocol:   d.Protocol,
			PID:        cmd.Process.Pid,
			StartedAt:  time.Now(),
		},
		cmd:  cmd,
		done: make(chan struct{}),
	}

	l.mu.Lock()
	l.current = s
	l.mu.Unlock()

	go l.wait(s)

	l.logger.Info("viewer started", "device_id", d.ID, "pid", s.info.PID)
	if l.config.OnStart != nil {
		l.config.OnStart(s.info)
	}
	return s.info, nil
}

// Disconnect closes the running viewer. It reports whether there was one.
func (l *Launcher) Disconnect(ctx context.Context) (bool, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	return l.stopCurrent(ctx)
}

// Close stops the running viewer, waiting at most the graceful timeout
// before killing it.
func (l *Launcher) Close() error {
	_, err := l.Disconnect(context.Background())
	return err
}

// wait reaps the viewer and clears the session if it is still current.
// done is closed after OnStop returns, so a Connect that replaced s reports
// the old session's stop before the new one's start.
func (l *Launcher) wait(s *session) {
	defer close(s.done)
	err := s.cmd.Wait()

	l.mu.Lock()
	requested := s.stopRequested
	if l.current == s {
		l.current = nil
	}
	l.mu.Unlock()

	switch {
	case requested:
		err = nil
		l.logger.Info("viewer stopped", "device_id", s.info.DeviceID)
	case err != nil:
		l.logger.Warn("viewer exited with error", "device_id", s.info.DeviceID, "error", err)
	default:
		l.logger.Info("viewer exited", "device_id", s.info.DeviceID)
	}

	if l.config.OnStop != nil {
		l.config.OnStop(s.info, err)
	}
}

// stopCurrent terminates the current session. Callers hold opMu.
func (l *Launcher) stopCurrent(ctx context.Context) (bool, error) {
	l.mu.Lock()
	s := l.current
	if s != nil {
		s.stopRequested = true
	}
	l.mu.Unlock()

	if s == nil {
		return false, nil
	}

	pid := s.info.PID
	l.logger.Info("stopping viewer", "device_id", s.info.DeviceID, "pid", pid)

	// Negative PID signals the whole process group
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		l.logger.Warn("failed to send SIGTERM to viewer", "pid", pid, "error", err)
	}

	timer := time.NewTimer(l.config.GracefulTimeout)
	defer timer.Stop()

	select {
	case <-s.done:
		return true, nil
	case <-timer.C:
		l.logger.Warn("viewer ignored SIGTERM, sending SIGKILL",
			"pid", pid,
			"timeout", l.config.GracefulTimeout,
		)
	case <-ctx.Done():
		l.logger.Warn("disconnect cancelled, sending SIGKILL", "pid", pid)
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return true, fmt.Errorf("killing viewer process group %d: %w", pid, err)
	}

	<-s.done
	return true, nil
}

// logWriter forwards viewer output to the logger one line at a time.
type logWriter struct {
	logger Logger
	stream string
	device string

	mu  sync.Mutex
	buf bytes.Buffer
}

const maxLineBytes = 4096

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// Partial line: keep it unless it grew too long.
			if len(line) >= maxLineBytes {
				w.emit(line)
			} else {
				w.buf.Write(line)
			}
			return len(p), nil
		}
		w.emit(bytes.TrimRight(line, "\r\n"))
	}
}

func (w *logWriter) emit(line []byte) {
	if len(line) == 0 {
		return
	}
	w.logger.Debug("viewer output",
		"device_id", w.device,
		"stream", w.stream,
		"output", string(line),
	)
}
