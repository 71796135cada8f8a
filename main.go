package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	gpssimulator "gps-navigator/cmd/gps_simulator"
	navigatorservice "gps-navigator/cmd/navigator_service"
	"gps-navigator/internal/cli"
	"gps-navigator/internal/common/config"
)

func main() {
	// quick path for global help
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	// parse mode and collect the remaining args for that mode
	mode, svcArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// run the service specified by the mode flag
	switch mode {

	case cli.ModeNavigator:
		fs := flag.NewFlagSet(cli.ModeNavigator, flag.ContinueOnError)
		maxConc := fs.Int("max-concurrent", 100, "Maximum number of concurrent HTTP requests to process")
		cli.AttachUsage(fs, cli.ModeNavigator)

		if err := fs.Parse(svcArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *maxConc < 1 {
			fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be >= 1")
			fs.Usage()
			os.Exit(2)
		}
		if err := navigatorservice.Run(ctx, *maxConc); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeSimulator:
		fs := flag.NewFlagSet(cli.ModeSimulator, flag.ContinueOnError)
		originLat := fs.Float64("origin-lat", 48.8566, "Replay origin latitude")
		originLng := fs.Float64("origin-lng", 2.3522, "Replay origin longitude")
		destLat := fs.Float64("dest-lat", 48.8606, "Replay destination latitude")
		destLng := fs.Float64("dest-lng", 2.3376, "Replay destination longitude")
		interval := fs.Int("interval-ms", 1000, "Delay between replayed samples in milliseconds")
		cli.AttachUsage(fs, cli.ModeSimulator)

		if err := fs.Parse(svcArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *interval < 1 {
			fmt.Fprintln(os.Stderr, "Error: --interval-ms must be >= 1")
			fs.Usage()
			os.Exit(2)
		}
		if err := gpssimulator.Run(ctx, *originLat, *originLng, *destLat, *destLng, *interval); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeToken:
		fs := flag.NewFlagSet(cli.ModeToken, flag.ContinueOnError)
		device := fs.String("device", "", "Device ID to embed in the token subject")
		vehicle := fs.String("vehicle", "", "Vehicle ID claim")
		cli.AttachUsage(fs, cli.ModeToken)

		if err := fs.Parse(svcArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *device == "" {
			fmt.Fprintln(os.Stderr, "Error: --device is required")
			fs.Usage()
			os.Exit(2)
		}

		cfg, err := config.Load("config.yaml")
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		token, claims, err := cli.GenerateDeviceToken(cfg.JWT.Secret, *device, *vehicle)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		fmt.Printf("device=%s vehicle=%s expires=%s\n%s\n",
			claims.DeviceID(), claims.VehicleID, claims.ExpiresAt.Time.UTC().Format(time.RFC3339), token)

	default:
		// should not happen because ParseMode validates known modes
		fmt.Fprintln(os.Stderr, "Error: unknown mode")
		os.Exit(2)
	}

	// tiny delay to let deferred logs flush on very fast exits
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
}
