package cmd

import (
	"context"
	"fmt"
	"io"

	"dhcp-leasewatch/internal/pkg/logging"
	"dhcp-leasewatch/internal/pkg/query"
	"dhcp-leasewatch/internal/port"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Start the DHCP server, check one client and stop the server",
	Long: `Start the DHCP server, check one client and stop the server.

Exit codes: 0 the check held, 1 the check failed, 2 usage error,
3 the DHCP server or its notifications failed.`,
}

// sessionCheck is one client check run against a started session.
type sessionCheck func(lm port.LeaseMonitor, mac string, bound query.Bound, out io.Writer) error

func checkOn(lm port.LeaseMonitor, mac string, bound query.Bound, out io.Writer) error {
	if err := lm.CheckDhcpClientOn(mac, bound); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s is on\n", mac)
	return nil
}

func checkOff(lm port.LeaseMonitor, mac string, bound query.Bound, out io.Writer) error {
	if err := lm.CheckDhcpClientOff(mac, bound); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s is off\n", mac)
	return nil
}

func checkWait(lm port.LeaseMonitor, mac string, bound query.Bound, out io.Writer) error {
	ip, err := lm.WaitLease(mac, bound)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, ip)
	return nil
}

func newCheckCmd(use, short string, check sessionCheck) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " MAC",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			bound := boundFlag(cmd)
			logging.WithComponent("cli").
				WithField("mac", args[0]).
				WithField("timeout", bound.String()).
				Infof("Running %s check", use)

			return withSession(cmd.Context(), newMonitor(cfg), func(_ context.Context, lm port.LeaseMonitor) error {
				return check(lm, args[0], bound, cmd.OutOrStdout())
			})
		},
	}
	addSessionFlags(cmd)
	cmd.Flags().DurationVarP(&checkTimeoutFlag, "timeout", "t", 0, "How long to wait for the client (default: half the lease time)")
	return cmd
}

func init() {
	checkCmd.AddCommand(
		newCheckCmd("on", "Succeed if the client holds or acquires a lease", checkOn),
		newCheckCmd("off", "Succeed if the client does not acquire a lease", checkOff),
		newCheckCmd("wait", "Wait for the client's lease and print its IP (no timeout: check once)", checkWait),
	)
	rootCmd.AddCommand(checkCmd)
}
