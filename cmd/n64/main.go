// Command n64 is the host process that loads a boot ROM, a microcontroller
// ROM, and a cartridge image, wires them into a system.System, and drains it
// until the process is interrupted or a fatal error surfaces. It is the only package in this module allowed to call os.Exit.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/n64dev/emu64/host"
	"github.com/n64dev/emu64/internal/config"
	"github.com/n64dev/emu64/system"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		logLevel   string
		configPath string
		headless   bool
	)

	cmd := &cobra.Command{
		Use:           "n64 bootRom pifRom cartRom",
		Short:         "Run an N64 cartridge image",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], args[1], args[2], configPath, headless)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&logLevel, "log-level", "info", "zap log level: debug, info, warn, error")
	flags.StringVar(&configPath, "config", "", "path to a config file overlaying the reference scheduler ratios")
	flags.BoolVar(&headless, "headless", false, "drain the scheduler without an interactive presentation backend")

	return cmd
}

// run loads cfg (CLI flags override the config file, which overrides
// defaults), builds the logger cfg.LogLevel names, constructs the system
// from the three ROM images, and drives it until SIGINT/SIGTERM or a fatal
// error.
func run(cmd *cobra.Command, bootRomPath, pifRomPath, cartRomPath, configPath string, headless bool) error {
	v := viper.New()
	if err := v.BindPFlag("log_level", cmd.Flags().Lookup("log-level")); err != nil {
		return fmt.Errorf("n64: %w", err)
	}

	cfg, err := config.Load(configPath, v)
	if err != nil {
		return fmt.Errorf("n64: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("n64: %w", err)
	}
	defer logger.Sync()

	bootRom, err := os.ReadFile(bootRomPath)
	if err != nil {
		return fmt.Errorf("n64: reading boot ROM: %w", err)
	}
	pifRom, err := os.ReadFile(pifRomPath)
	if err != nil {
		return fmt.Errorf("n64: reading microcontroller ROM: %w", err)
	}
	cart, err := os.ReadFile(cartRomPath)
	if err != nil {
		return fmt.Errorf("n64: reading cartridge image: %w", err)
	}

	sys := system.New(bootRom, pifRom, cart, cfg, logger)
	sys.Reset()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --headless is the only presentation backend this module implements
	// (see host.Headless's doc comment); there is no interactive terminal
	// frontend to fall back to without it, so both paths use it today.
	if !headless {
		logger.Warn("no interactive presentation backend built; running headless")
	}
	hostSink := &host.Headless{}

	if err := sys.Run(ctx, hostSink); err != nil {
		return fmt.Errorf("n64: %w", err)
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
