package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/spark-heimdall/heimdall/internal/apiclient"
	"github.com/spark-heimdall/heimdall/internal/device"
	"github.com/spark-heimdall/heimdall/internal/devicestore"
)

// URLEnv names the environment variable holding the default backend URL.
const URLEnv = "HEIMDALL_API_URL"

const (
	defaultURL     = "http://127.0.0.1:8080/"
	defaultTimeout = 10 * time.Second
)

// BuildInfo identifies the heimdallctl build.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Option configures the command tree.
type Option func(*app)

// WithPicker replaces the interactive device picker.
func WithPicker(p Picker) Option {
	return func(a *app) { a.pick = p }
}

// WithPrompter replaces the interactive prompts.
func WithPrompter(p Prompter) Option {
	return func(a *app) { a.prompt = p }
}

// app carries the state shared by all commands of one invocation.
type app struct {
	info    BuildInfo
	baseURL string
	timeout time.Duration
	pick    Picker
	prompt  Prompter

	api *apiclient.Client
}

// NewRootCommand builds the heimdallctl command tree.
func NewRootCommand(info BuildInfo, opts ...Option) *cobra.Command {
	a := &app{
		info:   info,
		pick:   fuzzyPicker{},
		prompt: terminalPrompter{in: os.Stdin},
	}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:           "heimdallctl",
		Short:         "Manage Heimdall remote desktop devices and connections",
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("heimdallctl version %s (commit: %s, built: %s)\n", info.Version, info.Commit, info.Date))

	envURL := os.Getenv(URLEnv)
	if envURL == "" {
		envURL = defaultURL
	}
	root.PersistentFlags().StringVarP(&a.baseURL, "url", "u", envURL, "Heimdall backend URL (env "+URLEnv+")")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", defaultTimeout, "Timeout for each backend request")

	root.AddCommand(
		a.devicesCommand(),
		a.connectCommand(),
		a.disconnectCommand(),
		a.configCommand(),
		a.watchCommand(),
		a.versionCommand(),
	)
	return root
}

// Execute runs heimdallctl with the process arguments and returns the exit
// code.
func Execute(ctx context.Context, info BuildInfo, opts ...Option) int {
	root := NewRootCommand(info, opts...)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %s\n", describe(err))
		return 1
	}
	return 0
}

// client returns the backend client, creating it on first use.
func (a *app) client() (*apiclient.Client, error) {
	if a.api != nil {
		return a.api, nil
	}
	c, err := apiclient.New(a.baseURL)
	if err != nil {
		return nil, err
	}
	a.api = c
	return c, nil
}

// loadStore returns a store initialized from the backend.
func (a *app) loadStore(ctx context.Context) (*devicestore.Store, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	store := devicestore.New(c)
	if err := store.Initialize(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// requestContext bounds a single command's backend calls by --timeout.
func (a *app) requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), a.timeout)
}

// describe renders an error for the terminal, adding the status code of
// HTTP failures.
func describe(err error) string {
	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("%s (HTTP %d)", httpErr.Message, httpErr.StatusCode)
	}
	var cfgErr *apiclient.ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.Reason + " (set --url or " + URLEnv + ")"
	}
	return err.Error()
}

// writeDevices prints devices as a table.
func writeDevices(w io.Writer, devices []device.Device) error {
	tw := newTable(w, "ID", "NAME", "PROTOCOL", "ADDRESS", "PORT", "USER")
	for _, d := range devices {
		tw.row(d.ID, d.Name, string(d.Protocol), d.IPAddress, fmt.Sprintf("%d", d.EffectivePort()), d.Username)
	}
	return tw.flush()
}
