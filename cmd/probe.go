package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	infraDhcp "dhcp-leasewatch/internal/adapter/infrastructure/dhcp"
	"dhcp-leasewatch/internal/pkg/logging"
	"dhcp-leasewatch/internal/port"
	"dhcp-leasewatch/internal/types"

	"github.com/spf13/cobra"
)

var (
	probeIfaceFlag   string
	probeTimeoutFlag time.Duration
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Request a lease as a DHCP client to exercise a running DHCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		return runProbe(cmd.Context(), infraDhcp.NewClientAdapter(), probeIfaceFlag, probeTimeoutFlag, cmd.OutOrStdout())
	},
}

func runProbe(ctx context.Context, client port.DHCPClient, ifaceName string, timeout time.Duration, out io.Writer) error {
	logger := logging.WithComponentAndInterface("cli", ifaceName)
	logger.WithField("timeout", timeout.String()).Info("Requesting DHCP lease")

	ack, err := client.RequestLease(ctx, ifaceName, timeout)
	if err != nil {
		return types.NewInfrastructureError("probe", err)
	}

	fmt.Fprintf(out, "IP: %s\n", ack.YourIPAddr)
	fmt.Fprintf(out, "Server: %s\n", ack.ServerIdentifier())
	fmt.Fprintf(out, "Lease time: %s\n", ack.IPAddressLeaseTime(0))
	return nil
}

func init() {
	probeCmd.Flags().StringVarP(&probeIfaceFlag, "interface", "i", "", "Client interface to send the request on")
	probeCmd.Flags().DurationVarP(&probeTimeoutFlag, "timeout", "t", 5*time.Second, "Timeout for each step of the exchange")
	if err := probeCmd.MarkFlagRequired("interface"); err != nil {
		panic(err) // This should never happen during initialization
	}
	rootCmd.AddCommand(probeCmd)
}
