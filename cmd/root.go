package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/retro8/chip8vm/internal/config"
	"github.com/retro8/chip8vm/internal/emulator"
	"github.com/retro8/chip8vm/internal/hal"
	"github.com/retro8/chip8vm/internal/vm"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           fmt.Sprintf("%s PATH_TO_ROM_FILE", filepath.Base(os.Args[0])),
	Short:         "Run the CHIP-8 emulator",
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.chip8vm.yaml)")

	rootCmd.Flags().Int("clock", config.DefaultClockHz, "instruction rate in Hz")
	rootCmd.Flags().Bool("shift-quirk", true, "8XY6/8XYE shift VX in place instead of shifting VY")
	rootCmd.Flags().Bool("load-store-quirk", true, "FX55/FX65 leave I unchanged")
	rootCmd.Flags().Bool("jump-quirk", false, "BNNN jumps to XNN+VX instead of NNN+V0")
	rootCmd.Flags().Bool("clip-sprites", false, "clip sprites at screen edges instead of wrapping")
}

func run(cmd *cobra.Command, args []string) error {
	loggerOpts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if verbose {
		loggerOpts.Level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, loggerOpts)))

	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	path := args[0]
	rom, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to load file %q: %w", path, err)
	}

	h, err := hal.New(cfg.Foreground, cfg.Background)
	if err != nil {
		return fmt.Errorf("unable to initialize hal: %w", err)
	}
	defer h.Shutdown()

	machine := vm.New(vm.Config{
		ShiftQuirk:     cfg.ShiftQuirk,
		LoadStoreQuirk: cfg.LoadStoreQuirk,
		JumpQuirk:      cfg.JumpQuirk,
		ClipSprites:    cfg.ClipSprites,
	})

	if err := machine.Load(rom); err != nil {
		return fmt.Errorf("unable to load program %q: %w", path, err)
	}
	slog.Info("loaded program", "path", path, "n", len(rom))

	return emulator.New(machine, h, cfg.ClockHz).Run()
}

func Execute() {
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}
