package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/spark-heimdall/heimdall/internal/device"
	"github.com/spark-heimdall/heimdall/internal/events"
)

func (a *app) watchCommand() *cobra.Command {
	var (
		only   []string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream backend events until interrupted",
		Example: `  heimdallctl watch
  heimdallctl watch --event connection.started --event connection.stopped
  heimdallctl watch --json | jq .payload`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, e := range only {
				if !slices.Contains(events.All(), e) {
					return fmt.Errorf("unknown event type %q", e)
				}
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var writeErr error
			return c.WatchEvents(cmd.Context(), func(msg events.Message) {
				if writeErr != nil {
					return
				}
				if len(only) > 0 && !slices.Contains(only, msg.EventType) {
					return
				}
				if asJSON {
					writeErr = json.NewEncoder(out).Encode(msg)
					return
				}
				writeErr = writeEvent(out, msg)
			})
		},
	}

	cmd.Flags().StringSliceVarP(&only, "event", "e", nil, "Only print these event types")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw event frames as JSON lines")
	//nolint:errcheck // Flag registered above
	cmd.RegisterFlagCompletionFunc("event", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return events.All(), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// writeEvent prints one event as a single human-readable line.
func writeEvent(w io.Writer, msg events.Message) error {
	_, err := fmt.Fprintf(w, "%s  %-18s  %s\n", msg.Timestamp, msg.EventType, summarize(msg))
	return err
}

func summarize(msg events.Message) string {
	switch msg.EventType {
	case events.ConnectionStarted, events.ConnectionStopped:
		var p events.ConnectionPayload
		if err := msg.Decode(&p); err != nil {
			return string(msg.Payload)
		}
		s := fmt.Sprintf("%s (%s) pid %d", p.DeviceName, p.Protocol, p.PID)
		if p.Error != "" {
			s += ": " + p.Error
		}
		return s
	case events.DeviceCreated, events.DeviceUpdated:
		var d device.Device
		if err := msg.Decode(&d); err != nil {
			return string(msg.Payload)
		}
		return fmt.Sprintf("%s %s (%s %s)", d.ID, d.Name, d.Protocol, d.IPAddress)
	case events.DeviceDeleted:
		var p events.DeviceDeletedPayload
		if err := msg.Decode(&p); err != nil {
			return string(msg.Payload)
		}
		return p.ID
	default:
		return string(msg.Payload)
	}
}
