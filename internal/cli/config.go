package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spark-heimdall/heimdall/internal/settings"
)

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the backend configuration",
	}
	cmd.AddCommand(a.configGetCommand(), a.configSetCommand())
	return cmd
}

func (a *app) configGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the backend configuration as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			c, err := a.client()
			if err != nil {
				return err
			}
			cfg, err := c.GetConfig(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), cfg)
		},
	}
}

func (a *app) configSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value...",
		Short: "Change configuration keys",
		Long: "Set sends only the given keys; everything else keeps its value.\n\nKeys:\n  " +
			strings.Join(configKeys(), "\n  "),
		Example: `  heimdallctl config set clients.rdp_viewer=/usr/bin/wlfreerdp
  heimdallctl config set connection.auto_start=true connection.auto_start_id=3f2c`,
		Args: cobra.MinimumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			keys := configKeys()
			for i := range keys {
				keys[i] += "="
			}
			return keys, cobra.ShellCompDirectiveNoSpace | cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := parseAssignments(args)
			if err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.UpdateConfig(ctx, update); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration updated")
			return nil
		},
	}
}

// configSetters maps each settable key to a function that records its
// value in an Update.
var configSetters = map[string]func(u *settings.Update, v string) error{
	"server.port": func(u *settings.Update, v string) error {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("server.port: %q is not a number", v)
		}
		u.Server = &settings.ServerUpdate{Port: &port}
		return nil
	},
	"connection.auto_start": func(u *settings.Update, v string) error {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("connection.auto_start: %q is not a boolean", v)
		}
		connectionUpdate(u).AutoStart = &on
		return nil
	},
	"connection.auto_start_id": func(u *settings.Update, v string) error {
		connectionUpdate(u).AutoStartID = &v
		return nil
	},
	"clients.vnc_viewer": func(u *settings.Update, v string) error {
		clientsUpdate(u).VNCViewer = &v
		return nil
	},
	"clients.vnc_password_file": func(u *settings.Update, v string) error {
		clientsUpdate(u).VNCPasswordFile = &v
		return nil
	},
	"clients.rdp_viewer": func(u *settings.Update, v string) error {
		clientsUpdate(u).RDPViewer = &v
		return nil
	},
	"logging.level": func(u *settings.Update, v string) error {
		loggingUpdate(u).Level = &v
		return nil
	},
	"logging.format": func(u *settings.Update, v string) error {
		loggingUpdate(u).Format = &v
		return nil
	},
}

func connectionUpdate(u *settings.Update) *settings.ConnectionUpdate {
	if u.Connection == nil {
		u.Connection = &settings.ConnectionUpdate{}
	}
	return u.Connection
}

func clientsUpdate(u *settings.Update) *settings.ClientsUpdate {
	if u.Clients == nil {
		u.Clients = &settings.ClientsUpdate{}
	}
	return u.Clients
}

func loggingUpdate(u *settings.Update) *settings.LoggingUpdate {
	if u.Logging == nil {
		u.Logging = &settings.LoggingUpdate{}
	}
	return u.Logging
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseAssignments turns key=value arguments into a partial update.
func parseAssignments(args []string) (settings.Update, error) {
	var u settings.Update
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return settings.Update{}, fmt.Errorf("%q: expected key=value", arg)
		}
		set, known := configSetters[strings.TrimSpace(key)]
		if !known {
			return settings.Update{}, fmt.Errorf("unknown key %q", key)
		}
		if err := set(&u, value); err != nil {
			return settings.Update{}, err
		}
	}
	return u, nil
}
