package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/frametrack/internal/config"
	"github.com/Dicklesworthstone/frametrack/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigPathCmd(),
		newConfigShowCmd(),
		newConfigGetCmd(),
		newConfigValidateCmd(),
	)
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefault()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", path)
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configPath())
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := outputFormat(format)
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), f, cfg, func(w io.Writer) error {
				return config.Print(cfg, w)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text (TOML), json, yaml")
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one value, e.g. timeline.snap_enabled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.GetValue(cfg, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return output.WriteJSON(cmd.OutOrStdout(), v, true)
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			errs := config.Validate(cfg)
			w := cmd.OutOrStdout()
			if len(errs) == 0 {
				fmt.Fprintf(w, "%s: ok\n", configPath())
				return nil
			}
			for _, err := range errs {
				fmt.Fprintf(w, "  %v\n", err)
			}
			return errors.New(output.CountStr(len(errs), "config problem", "config problems"))
		},
	}
}
