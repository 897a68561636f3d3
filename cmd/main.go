package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/richinsley/goshaderhero/config"
	"github.com/richinsley/goshaderhero/logging"
	"github.com/richinsley/goshaderhero/shader"
)

// app carries the flag values and what PersistentPreRunE builds from them.
type app struct {
	configPath  string
	verbose     bool
	shaderFile  string
	watch       bool
	maxPointers int
	minScale    float64

	window config.WindowConfig
	record config.RecordConfig

	cfg    *config.Config
	logger *zap.Logger
}

func (a *app) command() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "goshaderhero",
		Short: "Interactive GLSL hero background",
		Long: `goshaderhero renders the animated hero background shader in a window.
Pointer contacts (the mouse) make the glow follow and brighten.

Run without a subcommand to open the interactive window.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.prepare(cmd) },
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractive(cmd.Context())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "goshaderhero.yaml", "Path to the YAML configuration file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&a.shaderFile, "shader", "", "Fragment shader file to render instead of the built-in hero")
	pf.BoolVar(&a.watch, "watch", false, "Reload the shader file when it changes")
	pf.IntVar(&a.maxPointers, "max-pointers", 10, "Maximum simultaneous pointer contacts (1-10)")
	pf.Float64Var(&a.minScale, "min-scale", 1, "Lowest render scale factor")

	f := rootCmd.Flags()
	f.IntVar(&a.window.Width, "width", 1280, "Window width")
	f.IntVar(&a.window.Height, "height", 720, "Window height")
	f.StringVar(&a.window.Title, "title", "goshaderhero", "Window title")

	rootCmd.AddCommand(a.recordCommand(), a.checkCommand(), a.saveConfigCommand())
	return rootCmd
}

// prepare loads the configuration, applies explicitly set flags over it and
// builds the logger.
func (a *app) prepare(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("shader") {
		cfg.Render.ShaderFile = a.shaderFile
	}
	if flags.Changed("watch") {
		cfg.Render.Watch = a.watch
	}
	if flags.Changed("max-pointers") {
		cfg.Render.MaxPointers = a.maxPointers
	}
	if flags.Changed("min-scale") {
		cfg.Render.MinScale = a.minScale
	}

	switch cmd.Name() {
	case "record":
		a.overrideRecord(cmd, cfg)
	case "goshaderhero":
		a.overrideWindow(cmd, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging, a.verbose)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) overrideWindow(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Window.Width = a.window.Width
	}
	if flags.Changed("height") {
		cfg.Window.Height = a.window.Height
	}
	if flags.Changed("title") {
		cfg.Window.Title = a.window.Title
	}
}

// loadFragment returns the contents of path, or the built-in hero source
// when path is empty.
func loadFragment(path string) (string, error) {
	if path == "" {
		return shader.HeroFragment, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read shader file: %w", err)
	}
	return string(data), nil
}

func init() {
	runtime.LockOSThread()
}

func main() {
	a := &app{}
	if err := a.command().Execute(); err != nil {
		os.Exit(1)
	}
}
