package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"canvasctl/internal/config"
	"canvasctl/internal/render"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and update local configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path, err := config.Path()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Config file: %s\n", path)
		return render.PrintJSON(os.Stdout, cfg)
	},
}

var configSetBaseURLCmd = &cobra.Command{
	Use:   "set-base-url <url>",
	Short: "Persist the Canvas instance URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		normalized, err := config.ValidateBaseURL(args[0])
		if err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.BaseURL = normalized
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Saved base URL: %s\n", normalized)
		return nil
	},
}

var configSetDownloadPathCmd = &cobra.Command{
	Use:   "set-download-path <path>",
	Short: "Persist the default download destination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		normalized, err := config.NormalizeDestination(args[0])
		if err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.DefaultDest = normalized
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Saved default download path: %s\n", normalized)
		return nil
	},
}

var configClearDownloadPathCmd = &cobra.Command{
	Use:   "clear-download-path",
	Short: "Remove the stored default download destination",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.DefaultDest = ""
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Cleared default download path.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetBaseURLCmd)
	configCmd.AddCommand(configSetDownloadPathCmd)
	configCmd.AddCommand(configClearDownloadPathCmd)
}
