package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/ktr0731/go-fuzzyfinder"
	"golang.org/x/term"

	"github.com/spark-heimdall/heimdall/internal/device"
)

// ErrNotInteractive is returned when input is needed but stdin is not a
// terminal.
var ErrNotInteractive = errors.New("cli: stdin is not a terminal")

// ErrAborted is returned when the user cancels a prompt or the picker.
var ErrAborted = errors.New("cli: aborted")

// Picker lets the user choose one device.
type Picker interface {
	Pick(devices []device.Device) (device.Device, error)
}

// Prompter reads values the user did not pass as flags.
type Prompter interface {
	Line(label string) (string, error)
	Secret(label string) (string, error)
}

type fuzzyPicker struct{}

func (fuzzyPicker) Pick(devices []device.Device) (device.Device, error) {
	idx, err := fuzzyfinder.Find(
		devices,
		func(i int) string {
			return fmt.Sprintf("%-30s | %-4s | %s", devices[i].Name, devices[i].Protocol, devices[i].IPAddress)
		},
		fuzzyfinder.WithHeader("Select device"),
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i < 0 {
				return ""
			}
			return devicePreview(devices[i])
		}),
	)
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return device.Device{}, ErrAborted
	}
	if err != nil {
		return device.Device{}, err
	}
	return devices[idx], nil
}

func devicePreview(d device.Device) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID:       %s\n", d.ID)
	fmt.Fprintf(&b, "Name:     %s\n", d.Name)
	fmt.Fprintf(&b, "Protocol: %s\n", d.Protocol)
	fmt.Fprintf(&b, "Address:  %s:%d\n", d.IPAddress, d.EffectivePort())
	if d.Username != "" {
		fmt.Fprintf(&b, "User:     %s\n", d.Username)
	}
	if d.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Description)
	}
	return b.String()
}

// terminalPrompter prompts on the controlling terminal.
type terminalPrompter struct {
	in *os.File
}

func (p terminalPrompter) interactive() bool {
	return p.in != nil && term.IsTerminal(int(p.in.Fd()))
}

func (p terminalPrompter) Line(label string) (string, error) {
	if !p.interactive() {
		return "", ErrNotInteractive
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt: label + ": ",
		Stdin:  p.in,
	})
	if err != nil {
		return "", err
	}
	defer rl.Close()

	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", ErrAborted
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p terminalPrompter) Secret(label string) (string, error) {
	if !p.interactive() {
		return "", ErrNotInteractive
	}
	fmt.Fprint(os.Stderr, label+": ")
	secret, err := term.ReadPassword(int(p.in.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}
