package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dhcp-leasewatch/internal/adapter/dbus"
	"dhcp-leasewatch/internal/adapter/dnsmasq"
	"dhcp-leasewatch/internal/adapter/iface"
	"dhcp-leasewatch/internal/adapter/infrastructure/file"
	"dhcp-leasewatch/internal/adapter/infrastructure/network"
	"dhcp-leasewatch/internal/adapter/infrastructure/process"
	"dhcp-leasewatch/internal/adapter/leasefile"
	"dhcp-leasewatch/internal/adapter/monitor"
	"dhcp-leasewatch/internal/pkg/config"
	"dhcp-leasewatch/internal/pkg/logging"
	"dhcp-leasewatch/internal/pkg/metrics"
	"dhcp-leasewatch/internal/pkg/query"
	"dhcp-leasewatch/internal/port"
	"dhcp-leasewatch/internal/types"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var (
	ifaceFlag        string
	leaseTimeFlag    string
	checkTimeoutFlag time.Duration
)

// newMonitor wires the infrastructure adapters into a lease monitor for cfg.
func newMonitor(cfg *config.Config) *monitor.Manager {
	runner := process.NewRunnerAdapter(cfg.Server.Sudo)
	fileMgr := file.NewManagerAdapter()
	supervisor := dnsmasq.NewSupervisor(dnsmasq.Options{
		Executable:  cfg.Server.Executable,
		StopTimeout: cfg.Server.StopTimeout,
	}, runner, fileMgr)

	var source port.LeaseEventSource
	switch cfg.Monitor.Source {
	case config.SourceLeaseFile:
		source = leasefile.NewSource(cfg.Server.LeaseFile, cfg.Monitor.DNSAddress)
	default:
		source = dbus.NewSource(cfg.Monitor.BusWaitTimeout)
	}

	preparer := iface.NewPreparer(network.NewManagerAdapter())
	return monitor.NewManager(monitor.OptionsFromConfig(cfg), supervisor, source, preparer)
}

// withSession starts a monitoring session, runs fn and stops the session.
// A stop failure is reported only when fn succeeded.
func withSession(ctx context.Context, lm port.LeaseMonitor, fn func(ctx context.Context, lm port.LeaseMonitor) error) (err error) {
	if err := lm.Start(ctx, port.StartOptions{Interface: ifaceFlag, LeaseTime: leaseTimeFlag}); err != nil {
		return err
	}
	defer func() {
		if stopErr := lm.Stop(context.WithoutCancel(ctx)); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	return fn(ctx, lm)
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&ifaceFlag, "interface", "i", "", "Interface the DHCP server binds to (overrides server.interface)")
	cmd.Flags().StringVarP(&leaseTimeFlag, "lease-time", "l", "", "Lease time in dnsmasq syntax, e.g. 2m or infinite (overrides server.lease_time)")
}

// boundFlag returns the check bound given on the command line, if any.
func boundFlag(cmd *cobra.Command) query.Bound {
	if cmd.Flags().Changed("timeout") {
		return query.Within(checkTimeoutFlag)
	}
	return query.NoBound
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Start the DHCP server and track leases with an interactive console",
	Long: `Start the DHCP server and track leases with an interactive console.

Console input:
  <empty line>  log all known leases
  <MAC>         print the IP leased to MAC, then check the client on and off
  version       query the DHCP server version
  pause         stop monitoring, keep the server running
  resume        resume monitoring
  reset         forget all known leases
  exit          stop the server and quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := logging.WithComponent("cli")
		logger.WithField("config_file", configFlag).Info("Starting lease monitor")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Metrics.Enabled {
			addr, err := metrics.StartMetricsServer(ctx, cfg.Metrics.ListenAddress)
			if err != nil {
				return types.NewInfrastructureError("metrics", err)
			}
			logger.WithField("address", addr.String()).Info("Metrics server listening")
		}

		bound := boundFlag(cmd)
		err = withSession(ctx, newMonitor(cfg), func(ctx context.Context, lm port.LeaseMonitor) error {
			rl, err := newTerminalReader(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return runConsole(ctx, lm, rl, cmd.OutOrStdout(), bound)
		})
		logger.Info("Lease monitor stopped")
		return err
	},
}

var consoleCompleter = readline.NewPrefixCompleter(
	readline.PcItem("version"),
	readline.PcItem("pause"),
	readline.PcItem("resume"),
	readline.PcItem("reset"),
	readline.PcItem("exit"),
)

// lineReader is the part of *readline.Instance the console uses.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

func newTerminalReader(out io.Writer) (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "leasewatch> ",
		AutoComplete: consoleCompleter,
		Stdout:       out,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open console: %w", err)
	}
	return rl, nil
}

// runConsole reads commands until "exit", end of input, an interrupt or ctx
// cancellation.
func runConsole(ctx context.Context, lm port.LeaseMonitor, rl lineReader, out io.Writer, bound query.Bound) error {
	defer rl.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The next line is only read once the previous one was handled.
	lines := make(chan string)
	next := make(chan struct{})
	go func() {
		defer close(lines)
		for {
			line, err := rl.Readline()
			if err != nil {
				// io.EOF or readline.ErrInterrupt
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
			select {
			case <-next:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := handleConsoleLine(ctx, lm, strings.TrimSpace(line), out, bound); quit {
				return nil
			}
			select {
			case next <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func handleConsoleLine(ctx context.Context, lm port.LeaseMonitor, line string, out io.Writer, bound query.Bound) bool {
	switch strings.ToLower(line) {
	case "":
		lm.LogLeases()
	case "exit", "quit":
		return true
	case "version":
		v, err := lm.ServerVersion(ctx)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			break
		}
		fmt.Fprintf(out, "DHCP server version: %s\n", v)
	case "pause":
		reportConsoleErr(out, lm.StopMonitoringServer())
	case "resume":
		reportConsoleErr(out, lm.RestartMonitoringServer(ctx))
	case "reset":
		lm.ResetLeaseDatabase()
		fmt.Fprintln(out, "Lease database cleared")
	default:
		checkMAC(lm, line, out, bound)
	}
	return false
}

func checkMAC(lm port.LeaseMonitor, mac string, out io.Writer, bound query.Bound) {
	if ip, ok := lm.FindIPForMac(mac); ok {
		fmt.Fprintf(out, "IP for %s: %s\n", mac, ip)
	} else {
		fmt.Fprintf(out, "No lease for %s\n", mac)
	}

	if err := lm.CheckDhcpClientOn(mac, bound); err != nil {
		fmt.Fprintf(out, "Client on: failed: %v\n", err)
	} else {
		fmt.Fprintln(out, "Client on: ok")
	}
	if err := lm.CheckDhcpClientOff(mac, bound); err != nil {
		fmt.Fprintf(out, "Client off: failed: %v\n", err)
	} else {
		fmt.Fprintln(out, "Client off: ok")
	}
}

func reportConsoleErr(out io.Writer, err error) {
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(out, "ok")
}

func init() {
	addSessionFlags(monitorCmd)
	monitorCmd.Flags().DurationVarP(&checkTimeoutFlag, "timeout", "t", 0, "Bound for console client checks (default: half the lease time)")
	rootCmd.AddCommand(monitorCmd)
}
