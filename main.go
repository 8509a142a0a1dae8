package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gordonklaus/portaudio"
	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"

	"go.verba.dev/verba/audio"
	"go.verba.dev/verba/config"
	"go.verba.dev/verba/internal/app"
)

var version = "dev"

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	logLevel := pflag.StringP("log", "l", "info", "log level (debug, info, warn, error)")
	device := pflag.StringP("device", "d", "", "input device name, overrides configuration")
	listDevices := pflag.Bool("list-devices", false, "list input devices and exit")
	showVersion := pflag.BoolP("version", "v", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println("verba", version)
		return
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevels[*logLevel],
	})))

	if err := run(*device, *listDevices); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(deviceOverride string, listDevices bool) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize audio subsystem: %w", err)
	}
	defer portaudio.Terminate()

	if listDevices {
		devices, err := audio.ListInputDevices()
		if err != nil {
			return err
		}
		for _, d := range devices {
			marker := " "
			if d.IsDefault {
				marker = "*"
			}
			fmt.Printf("%s %s (%d Hz, %d ch)\n", marker, d.Name, int(d.SampleRate), d.Channels)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if deviceOverride != "" {
		cfg.SelectedMicrophone = deviceOverride
	}

	service, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}
	if err := service.Start(); err != nil {
		return err
	}
	slog.Info("verba running", "version", version)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	service.Shutdown()
	return nil
}
