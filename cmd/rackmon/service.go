package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vitalis-app/rackmon/internal/autostart"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install rackmon as a systemd service",
	Long: `Write a systemd unit that runs "rackmon run" with the given config file,
then enable and start it. Requires root.

Example:
  sudo rackmon install -c /etc/rackmon/rackmon.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := autostart.CheckElevation(); err != nil {
			return err
		}

		// Refuse to install a service that would fail on start.
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locating executable: %w", err)
		}

		m := autostart.New()
		if err := m.Install(cmd.Context(), execPath, configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed %s (%s)\n", autostart.ServiceName, m.UnitPath)
		return nil
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the systemd service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := autostart.CheckElevation(); err != nil {
			return err
		}
		m := autostart.New()
		if err := m.Uninstall(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", autostart.ServiceName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd, uninstallCmd)
}
