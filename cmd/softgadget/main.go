// Command softgadget binds a FunctionFS function into a composite USB
// gadget, optionally paired with an RNDIS or ECM network function.
//
// Usage:
//
//	softgadget [flags]
//
// Configuration is read from --config, a .env file, SOFTGADGET_*
// environment variables, and flags. See package config for the keys.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ardnew/softgadget/composite"
	"github.com/ardnew/softgadget/composite/hal"
	"github.com/ardnew/softgadget/config"
	"github.com/ardnew/softgadget/ffs"
	"github.com/ardnew/softgadget/gadget"
	"github.com/ardnew/softgadget/pkg"
	"github.com/ardnew/softgadget/pkg/usbid"
)

// Component identifier for softgadget logging.
const componentMain pkg.Component = "main"

// virtualUDC names the controller used when none is found in sysfs.
const virtualUDC = "dummy_udc.0"

// loopback is the function used when no descriptor file is given: one
// vendor-specific interface with a bulk endpoint pair.
var loopback = ffs.Descriptors{
	Strings: []string{"Bulk Loopback"},
	Interfaces: []ffs.InterfaceSpec{{
		Class:  composite.ClassVendor,
		String: 1,
		Endpoints: []ffs.EndpointSpec{
			{Address: 0x81, Attributes: 0x02, MaxPacketSize: 512},
			{Address: 0x01, Attributes: 0x02, MaxPacketSize: 512},
		},
	}},
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		pkg.LogError(componentMain, "exiting", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("softgadget", pflag.ExitOnError)
	configFile := flags.StringP("config", "c", "", "configuration file (YAML)")
	envFile := flags.String("env-file", ".env", "environment file")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")
	config.RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}

	opts := []config.Option{config.WithEnvFile(*envFile), config.WithFlags(flags)}
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}

	logFile, err := setupLogging(cfg, *verbose)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	params, err := cfg.Params()
	if err != nil {
		return err
	}
	enabled, err := cfg.Enabled()
	if err != nil {
		return err
	}
	desc, err := loadDescriptors(cfg.Descriptors)
	if err != nil {
		return err
	}

	udc, err := hal.Find(hal.SysfsUDCPath, cfg.UDC)
	if err != nil {
		name := cfg.UDC
		if name == "" {
			name = virtualUDC
		}
		pkg.LogWarn(componentMain, "no controller in sysfs, using a virtual one",
			"udc", name,
			"error", err)
		udc = hal.Virtual(name)
	}
	pkg.LogInfo(componentMain, "using controller",
		"udc", udc.Name(),
		"otg", udc.IsOTG(),
		"speed", udc.MaxSpeed().String())

	ids := usbid.New()
	if !ids.Load() {
		pkg.LogDebug(componentMain, "usb.ids not found, logging numeric IDs")
	}

	core := composite.NewCore(udc)
	coord := gadget.NewCoordinator(core, enabled,
		gadget.WithParams(params),
		gadget.WithUSBIDs(ids))

	provider := ffs.NewProvider()
	coord.Listen(provider)
	if err := provider.Init(); err != nil {
		return err
	}
	defer provider.Cleanup()

	inst, err := provider.Mount(cfg.Device)
	if err != nil {
		return fmt.Errorf("mount %s: %w", cfg.Device, err)
	}
	if err := inst.Activate(desc); err != nil {
		_ = provider.Unmount(inst)
		return fmt.Errorf("activate %s: %w", cfg.Device, err)
	}

	pkg.LogInfo(componentMain, "gadget ready",
		"device", cfg.Device,
		"state", coord.State().String(),
		"configs", enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	pkg.LogInfo(componentMain, "shutting down")
	err = provider.Unmount(inst)
	return errors.Join(err, coord.Close())
}

// setupLogging applies the log configuration. The returned closer is
// non-nil when logs go to a file.
func setupLogging(cfg *config.Config, verbose bool) (io.Closer, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	format, err := cfg.LogFormat()
	if err != nil {
		return nil, err
	}
	pkg.SetLogLevel(level)

	if cfg.Log.File == "" {
		pkg.SetLogOutput(os.Stderr, format)
		return nil, nil
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   true,
	}
	pkg.SetLogOutput(rotator, format)
	return rotator, nil
}

func loadDescriptors(path string) (ffs.Descriptors, error) {
	if path == "" {
		return loopback, nil
	}
	return ffs.LoadDescriptors(path)
}
