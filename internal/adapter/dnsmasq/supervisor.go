// Package dnsmasq supervises a dnsmasq DHCP server process.
package dnsmasq

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dhcp-leasewatch/internal/pkg/logging"
	"dhcp-leasewatch/internal/pkg/metrics"
	"dhcp-leasewatch/internal/port"
	"dhcp-leasewatch/internal/types"

	"github.com/sirupsen/logrus"
)

// rcPortInUse is the dnsmasq exit code for a network failure such as an address already in use.
const rcPortInUse = 2

const (
	defaultStopTimeout  = time.Second
	defaultPollInterval = 100 * time.Millisecond
)

// Options configures a Supervisor.
type Options struct {
	Executable   string
	StopTimeout  time.Duration
	PollInterval time.Duration
}

// Supervisor implements the ServerSupervisor port by running dnsmasq through a CommandRunner.
type Supervisor struct {
	opts    Options
	runner  port.CommandRunner
	fileMgr port.FileManager
	logger  *logrus.Entry
}

// Ensure Supervisor implements the ServerSupervisor port
var _ port.ServerSupervisor = (*Supervisor)(nil)

// NewSupervisor creates a new dnsmasq supervisor.
func NewSupervisor(opts Options, runner port.CommandRunner, fileMgr port.FileManager) *Supervisor {
	if opts.Executable == "" {
		opts.Executable = "dnsmasq"
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = defaultStopTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	return &Supervisor{
		opts:    opts,
		runner:  runner,
		fileMgr: fileMgr,
		logger:  logging.WithComponent("dnsmasq"),
	}
}

// Args returns the dnsmasq command line for spec.
func Args(spec types.ServerSpec) []string {
	dhcpRange := fmt.Sprintf("--dhcp-range=interface:%s,%s,%s", spec.Interface, spec.RangeStart, spec.RangeEnd)
	if spec.LeaseTime != "" {
		dhcpRange += "," + spec.LeaseTime
	}

	args := []string{
		"-i", spec.Interface,
		"-u", spec.User,
		"-g", spec.Group,
		"--no-resolv",
		dhcpRange,
		"--dhcp-authoritative",
		"--log-dhcp",
	}
	if spec.LeaseFile == "" {
		args = append(args, "--leasefile-ro")
	} else {
		args = append(args, "--dhcp-leasefile="+spec.LeaseFile)
	}
	if spec.EnableDBus {
		args = append(args, "-C", "-")
	}
	return append(args, "-x", spec.PIDFile)
}

// stdinConfig is the configuration fed on stdin when "-C -" is passed.
func stdinConfig(spec types.ServerSpec) string {
	if spec.EnableDBus {
		return "enable-dbus\n"
	}
	return ""
}

// Start prepares the PID file directory, validates the command line with a dry
// run, launches dnsmasq and reads back its PID.
func (s *Supervisor) Start(ctx context.Context, spec types.ServerSpec) (types.ServerHandle, error) {
	logger := s.logger.WithField("interface", spec.Interface)

	handle, err := s.start(ctx, spec, logger)
	if err != nil {
		metrics.ServerStarts.WithLabelValues("failure").Inc()
		return types.ServerHandle{}, err
	}
	metrics.ServerStarts.WithLabelValues("success").Inc()
	logger.WithField("pid", handle.PID).Info("DHCP server started")
	return handle, nil
}

func (s *Supervisor) start(ctx context.Context, spec types.ServerSpec, logger *logrus.Entry) (types.ServerHandle, error) {
	if err := s.preparePIDDir(ctx, spec); err != nil {
		return types.ServerHandle{}, fmt.Errorf("%w: %w", types.ErrServerStart, err)
	}

	args := Args(spec)
	logger.WithField("args", strings.Join(args, " ")).Debug("Checking DHCP server configuration")
	rc, err := s.runner.Run(ctx, strings.NewReader(stdinConfig(spec)), s.opts.Executable, append(args, "--test")...)
	if err != nil {
		return types.ServerHandle{}, fmt.Errorf("%w: %w", types.ErrServerStart, err)
	}
	if rc != 0 {
		return types.ServerHandle{}, fmt.Errorf("%w: configuration check exited with rc=%d", types.ErrServerStart, rc)
	}

	rc, err = s.runner.Run(ctx, strings.NewReader(stdinConfig(spec)), s.opts.Executable, args...)
	if err != nil {
		return types.ServerHandle{}, fmt.Errorf("%w: %w", types.ErrServerStart, err)
	}
	switch rc {
	case 0:
	case rcPortInUse:
		return types.ServerHandle{}, fmt.Errorf("%w: %w", types.ErrServerStart, types.ErrPortInUse)
	default:
		return types.ServerHandle{}, fmt.Errorf("%w: rc=%d", types.ErrServerStart, rc)
	}

	pid, err := s.readPID(spec.PIDFile)
	if err != nil {
		return types.ServerHandle{}, fmt.Errorf("%w: %w", types.ErrServerStart, err)
	}
	return types.ServerHandle{PID: pid, Interface: spec.Interface, StartedAt: time.Now()}, nil
}

// preparePIDDir creates the PID file directory owned by the server user and group.
func (s *Supervisor) preparePIDDir(ctx context.Context, spec types.ServerSpec) error {
	dir := filepath.Dir(spec.PIDFile)
	steps := [][]string{
		{"mkdir", "-p", dir},
		{"chown", spec.User, dir},
		{"chgrp", spec.Group, dir},
	}
	for _, step := range steps {
		rc, err := s.runner.Run(ctx, nil, step[0], step[1:]...)
		if err != nil {
			return err
		}
		if rc != 0 {
			return fmt.Errorf("%s %s exited with rc=%d", step[0], dir, rc)
		}
	}
	return nil
}

func (s *Supervisor) readPID(pidFile string) (int, error) {
	data, err := s.fileMgr.ReadFile(pidFile)
	if err != nil {
		return 0, err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, fmt.Errorf("PID file %s is empty", pidFile)
	}
	pid, err := strconv.Atoi(text)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("PID file %s holds an invalid PID %q", pidFile, text)
	}
	return pid, nil
}

// Stop sends SIGINT and waits up to the stop timeout for the process to exit,
// then sends SIGKILL.
func (s *Supervisor) Stop(ctx context.Context, handle types.ServerHandle) error {
	logger := s.logger.WithField("interface", handle.Interface).WithField("pid", handle.PID)
	pid := strconv.Itoa(handle.PID)

	if _, err := s.runner.Run(ctx, nil, "kill", "-SIGINT", pid); err != nil {
		return fmt.Errorf("%w: %w", types.ErrServerStop, err)
	}

	if s.waitExit(ctx, pid) {
		logger.Info("DHCP server stopped")
		return nil
	}

	logger.WithField("timeout", s.opts.StopTimeout.String()).Warn("DHCP server did not exit, killing it")
	if _, err := s.runner.Run(ctx, nil, "kill", "-SIGKILL", pid); err != nil {
		return fmt.Errorf("%w: %w", types.ErrServerStop, err)
	}
	if alive, err := s.alive(ctx, pid); err != nil || alive {
		return fmt.Errorf("%w: process %s still running", types.ErrServerStop, pid)
	}
	logger.Info("DHCP server killed")
	return nil
}

// waitExit polls until the process is gone or the stop timeout elapses.
func (s *Supervisor) waitExit(ctx context.Context, pid string) bool {
	deadline := time.Now().Add(s.opts.StopTimeout)
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		if alive, err := s.alive(ctx, pid); err == nil && !alive {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func (s *Supervisor) alive(ctx context.Context, pid string) (bool, error) {
	rc, err := s.runner.Run(ctx, nil, "kill", "-0", pid)
	if err != nil {
		return false, err
	}
	return rc == 0, nil
}

// Reload sends SIGHUP, which makes dnsmasq re-announce its current leases.
func (s *Supervisor) Reload(ctx context.Context, handle types.ServerHandle) error {
	rc, err := s.runner.Run(ctx, nil, "kill", "-SIGHUP", strconv.Itoa(handle.PID))
	if err != nil {
		return err
	}
	if rc != 0 {
		return fmt.Errorf("kill -SIGHUP %d exited with rc=%d", handle.PID, rc)
	}
	s.logger.WithField("pid", handle.PID).Debug("DHCP server reloaded")
	return nil
}
