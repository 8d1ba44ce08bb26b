package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spark-heimdall/heimdall/internal/device"
	"github.com/spark-heimdall/heimdall/internal/devicestore"
)

// deviceFlags holds the editable device fields of add and update.
type deviceFlags struct {
	name        string
	address     string
	protocol    string
	port        int
	username    string
	password    string
	askPassword bool
	fullScreen  bool
	description string
	screen      string
}

func (f *deviceFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.name, "name", "n", "", "Display name")
	fl.StringVarP(&f.address, "address", "a", "", "IP address or hostname")
	fl.StringVarP(&f.protocol, "protocol", "p", "", "Protocol (vnc or rdp)")
	fl.IntVar(&f.port, "port", 0, "Port (0 uses the protocol default)")
	fl.StringVar(&f.username, "user", "", "Login user (rdp)")
	fl.StringVar(&f.password, "password", "", "Login password (rdp)")
	fl.BoolVar(&f.askPassword, "ask-password", false, "Prompt for the password")
	fl.BoolVar(&f.fullScreen, "fullscreen", false, "Start the viewer full screen")
	fl.StringVar(&f.description, "description", "", "Free-form description")
	fl.StringVar(&f.screen, "screen", "", "Monitor to open the viewer on")

	//nolint:errcheck // Flag names are registered above
	cmd.RegisterFlagCompletionFunc("protocol", protocolCompletion)
}

func protocolCompletion(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	protocols := make([]string, 0, len(device.AllProtocols()))
	for _, p := range device.AllProtocols() {
		protocols = append(protocols, string(p))
	}
	return protocols, cobra.ShellCompDirectiveNoFileComp
}

func (a *app) devicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"device", "dev"},
		Short:   "List and edit devices",
	}
	cmd.AddCommand(
		a.devicesListCommand(),
		a.devicesAddCommand(),
		a.devicesUpdateCommand(),
		a.devicesDeleteCommand(),
	)
	return cmd
}

func (a *app) devicesListCommand() *cobra.Command {
	var (
		protocol string
		group    bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List devices in name order",
		Example: `  heimdallctl devices list
  heimdallctl devices list --protocol rdp
  heimdallctl devices list --group`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			store.SetGroupByProtocol(group)

			view := store.View()
			out := cmd.OutOrStdout()

			if !group {
				if asJSON {
					return writeJSON(out, view.Filtered)
				}
				if err := writeDevices(out, view.Filtered); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%d of %d devices\n", view.Counts.Filtered, view.Counts.Total)
				return nil
			}

			// The groups always cover the whole collection; a protocol
			// filter selects which of them to print.
			groups := map[device.Protocol][]device.Device{
				device.ProtocolVNC: view.Groups.VNC,
				device.ProtocolRDP: view.Groups.RDP,
			}
			if filter != devicestore.FilterNone {
				for p := range groups {
					if devicestore.Filter(p) != filter {
						delete(groups, p)
					}
				}
			}
			if asJSON {
				return writeJSON(out, groups)
			}
			for _, p := range device.AllProtocols() {
				list, ok := groups[p]
				if !ok {
					continue
				}
				fmt.Fprintf(out, "%s (%d)\n", p, len(list))
				if err := writeDevices(out, list); err != nil {
					return err
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&protocol, "protocol", "p", string(devicestore.FilterNone), "Only show devices using this protocol (vnc, rdp, none)")
	cmd.Flags().BoolVarP(&group, "group", "g", false, "Group devices by protocol")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func (a *app) devicesAddCommand() *cobra.Command {
	var f deviceFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a device",
		Example: `  heimdallctl devices add --name "Control room" --address 10.0.0.5 --protocol vnc
  heimdallctl devices add -n Desk -a desk.lan -p rdp --user ops --ask-password`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.fillRequired(&f); err != nil {
				return err
			}
			protocol, err := device.ParseProtocol(f.protocol)
			if err != nil {
				return err
			}
			if f.askPassword {
				if f.password, err = a.prompt.Secret("Password"); err != nil {
					return err
				}
			}

			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			store, err := a.loadStore(ctx)
			if err != nil {
				return err
			}
			created, err := store.Add(ctx, device.NewDevice{
				Name:        f.name,
				IPAddress:   f.address,
				Protocol:    protocol,
				Port:        f.port,
				Username:    f.username,
				Password:    f.password,
				FullScreen:  f.fullScreen,
				Description: f.description,
				Screen:      f.screen,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// fillRequired prompts for the name, address and protocol when they were
// not given as flags.
func (a *app) fillRequired(f *deviceFlags) error {
	fields := []struct {
		label string
		value *string
	}{
		{"Name", &f.name},
		{"Address", &f.address},
		{"Protocol (vnc/rdp)", &f.protocol},
	}
	for _, field := range fields {
		if *field.value != "" {
			continue
		}
		v, err := a.prompt.Line(field.label)
		if errors.Is(err, ErrNotInteractive) {
			return errors.New("--name, --address and --protocol are required")
		}
		if err != nil {
			return err
		}
		*field.value = v
	}
	return nil
}

func (a *app) devicesUpdateCommand() *cobra.Command {
	var f deviceFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a device",
		Long: `Update changes only the fields passed as flags. The device id never
changes.`,
		Example: `  heimdallctl devices update 3f2c --name "Control room 2"
  heimdallctl devices update 3f2c --fullscreen=false`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.deviceIDCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			store, err := a.loadStore(ctx)
			if err != nil {
				return err
			}
			current, ok := store.Search(args[0])
			if !ok {
				return fmt.Errorf("no device with id %q", args[0])
			}

			next, err := f.apply(cmd, current)
			if err != nil {
				return err
			}
			if f.askPassword {
				if next.Password, err = a.prompt.Secret("Password"); err != nil {
					return err
				}
			}

			updated, err := store.Update(ctx, next)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", updated.Name, updated.ID)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// apply copies the flags the user set onto d.
func (f *deviceFlags) apply(cmd *cobra.Command, d device.Device) (device.Device, error) {
	changed := cmd.Flags().Changed
	if changed("name") {
		d.Name = f.name
	}
	if changed("address") {
		d.IPAddress = f.address
	}
	if changed("protocol") {
		p, err := device.ParseProtocol(f.protocol)
		if err != nil {
			return device.Device{}, err
		}
		d.Protocol = p
	}
	if changed("port") {
		d.Port = f.port
	}
	if changed("user") {
		d.Username = f.username
	}
	if changed("password") {
		d.Password = f.password
	}
	if changed("fullscreen") {
		d.FullScreen = f.fullScreen
	}
	if changed("description") {
		d.Description = f.description
	}
	if changed("screen") {
		d.Screen = f.screen
	}
	return d, nil
}

func (a *app) devicesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <id>",
		Aliases:           []string{"rm"},
		Short:             "Delete a device",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.deviceIDCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			store, err := a.loadStore(ctx)
			if err != nil {
				return err
			}
			if err := store.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

// deviceIDCompletion completes device ids, showing names as descriptions.
func (a *app) deviceIDCompletion(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx, cancel := a.requestContext(cmd)
	defer cancel()

	store, err := a.loadStore(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	all := store.All()
	completions := make([]string, 0, len(all))
	for _, d := range all {
		completions = append(completions, d.ID+"\t"+d.Name)
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
