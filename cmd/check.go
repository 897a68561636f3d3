package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/richinsley/goshaderhero/glcore"
	"github.com/richinsley/goshaderhero/renderer"
	"github.com/richinsley/goshaderhero/shader"
)

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Compile and link a fragment shader without rendering",
		Long: `Translates the fragment shader (the built-in hero when no file is given),
compiles it on its own and then links it against the hero vertex shader.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Render.ShaderFile
			if len(args) == 1 {
				path = args[0]
			}
			if err := a.runCheck(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func (a *app) runCheck(path string) error {
	fragment, err := loadFragment(path)
	if err != nil {
		return err
	}

	host, closeHost, err := openOffscreen(1, 1, a.logger)
	if err != nil {
		return err
	}
	defer closeHost()

	backend, err := glcore.NewBackend(host)
	if err != nil {
		return err
	}
	defer backend.Destroy()

	prog, err := shader.Prepare(fragment, host.IsGLES())
	if err != nil {
		return err
	}
	r := renderer.New(backend, host, prog, renderer.WithLogger(a.logger))
	if err := r.Test(prog.Fragment); err != nil {
		return fmt.Errorf("fragment shader: %w", err)
	}
	err = r.Setup()
	r.Release()
	return err
}

func (a *app) saveConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save-config [path]",
		Short: "Write the effective configuration as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if err := a.cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}
