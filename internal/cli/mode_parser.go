package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeNavigator = "navigator-service"
	ModeSimulator = "gps-simulator"
	ModeToken     = "issue-token"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeNavigator, "navigator", "nav", "n":
		return ModeNavigator, true
	case ModeSimulator, "simulator", "sim", "s":
		return ModeSimulator, true
	case ModeToken, "token", "t":
		return ModeToken, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `navigator-service --max-concurrent=100`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for i := range args {
		arg := args[i]
		if after, ok := strings.CutPrefix(arg, "--mode="); ok {
			mode = after
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, errors.New("no mode specified: use --mode=<service>")
	}

	if m, ok := isKnownMode(mode); ok {
		mode = m
	}

	return mode, out, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // cyan

	fmt.Fprintln(w, `Usage:
  ./gps-navigator --mode=<service> [flags]

Services (modes):
  navigator-service            HTTP/WS API, session engine and telemetry
  gps-simulator                Replays a computed route as timed GPS samples
  issue-token                  Mints a head-unit JWT for development

Examples:
  ./gps-navigator --mode=navigator-service --max-concurrent=100
  ./gps-navigator --mode=gps-simulator --dest-lat=48.8606 --dest-lng=2.3376
  ./gps-navigator --mode=issue-token --device=head-unit-01 --vehicle=VH-1234`)

	fmt.Fprint(w, "\033[0m") // reset
}

// AttachUsage wires a concise per-mode usage to a FlagSet.
func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./gps-navigator --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
