// Package main is the entry point for the GoScope audio visualizer.
//
// Build:
//
//	go build -o build/goscope ./cmd
//
// Run:
//
//	./build/goscope --mode loopback
//	./build/goscope devices
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tejashwikalptaru/goscope/internal/app"
	"github.com/tejashwikalptaru/goscope/internal/logger"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:          "goscope",
	Short:        "Real-time audio waveform and spectrum visualizer",
	Long:         `GoScope captures the microphone or desktop audio and renders its waveform and frequency spectrum`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVisualizer()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the visualizer window",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVisualizer()
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listDevices()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(app.GetVersionInfo().FullString())
	},
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"mode":        "mode",
	"device":      "device",
	"gain":        "gain",
	"noise-gate":  "noise_gate",
	"stream-addr": "stream.addr",
	"mock":        "mock",
	"log-level":   "log.level",
	"log-file":    "log.file",
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is goscope.yaml in the user config directory)")
	flags.String("mode", "", "capture mode: microphone or loopback")
	flags.String("device", "", "capture device name")
	flags.Float64("gain", 0, "waveform gain (0 uses the saved gain)")
	flags.Float64("noise-gate", 0, "peak amplitude below which the spectrum is silenced")
	flags.String("stream-addr", "", "serve snapshots over websocket on this address")
	flags.Bool("mock", false, "use a synthetic audio source")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-file", "", "also write logs to this rotated file")

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runVisualizer() error {
	config, err := app.LoadConfig(v, cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	application, err := app.NewApplication(config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	// Ctrl+C closes the window, which returns from Run
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		if _, ok := <-sigChan; ok {
			application.Quit()
		}
	}()

	runErr := application.Run()
	if err := application.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
	}
	return runErr
}

func listDevices() error {
	config, err := app.LoadConfig(v, cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, closer := logger.New(config.Log)
	defer closer.Close()

	source, err := app.NewAudioSource(config, log)
	if err != nil {
		return err
	}
	defer source.Shutdown()

	return app.ListDevices(os.Stdout, source)
}
