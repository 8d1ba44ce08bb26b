package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spark-heimdall/heimdall/internal/device"
	"github.com/spark-heimdall/heimdall/internal/devicestore"
)

func (a *app) connectCommand() *cobra.Command {
	var protocol string

	cmd := &cobra.Command{
		Use:   "connect [device]",
		Short: "Open the viewer for a device on the backend host",
		Long: `Connect asks the backend to start the VNC or RDP viewer for a device,
closing any viewer that is already open.

The device is matched by exact id first, then by a case-insensitive name
substring. Without an argument, or when several names match, an interactive
picker is shown.`,
		Example: `  # Interactive selection
  heimdallctl connect

  # Only offer rdp devices
  heimdallctl connect -p rdp

  # Direct connection with a partial name
  heimdallctl connect control`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: a.deviceIDCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := devicestore.ParseFilter(protocol)
			if err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			store, err := a.loadStore(ctx)
			if err != nil {
				return err
			}
			if err := store.SetProtocolFilter(filter); err != nil {
				return err
			}

			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			target, err := a.selectDevice(store.Filtered(), query)
			if err != nil {
				return err
			}

			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.ConnectToDevice(ctx, target.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connecting to %s (%s %s)\n", target.Name, target.Protocol, target.IPAddress)
			return nil
		},
	}

	cmd.Flags().StringVarP(&protocol, "protocol", "p", string(devicestore.FilterNone), "Only consider devices using this protocol")
	return cmd
}

// selectDevice resolves query against devices, falling back to the picker
// when the query is empty or ambiguous.
func (a *app) selectDevice(devices []device.Device, query string) (device.Device, error) {
	if len(devices) == 0 {
		return device.Device{}, fmt.Errorf("no devices")
	}
	if query == "" {
		return a.pick.Pick(devices)
	}

	if i := device.IndexOf(devices, query); i >= 0 {
		return devices[i], nil
	}

	needle := strings.ToLower(query)
	var matches []device.Device
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), needle) {
			matches = append(matches, d)
		}
	}

	switch len(matches) {
	case 0:
		return device.Device{}, fmt.Errorf("no device matching %q", query)
	case 1:
		return matches[0], nil
	default:
		return a.pick.Pick(matches)
	}
}

func (a *app) disconnectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Close the open viewer on the backend host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.Disconnect(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Disconnected")
			return nil
		},
	}
}
