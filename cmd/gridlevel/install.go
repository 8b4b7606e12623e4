package main

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rcpd/gridlevel/pkg/config"
	daemonutils "github.com/rcpd/gridlevel/pkg/utils/daemon"
)

var gInstallation = "Installation:"

func init() {
	commandGroups = append(commandGroups, gInstallation)
}

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	allowNonRootAccess := false

	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Install gridlevel (system-wide)",
		GroupID: gInstallation,
		Long: `Install gridlevel daemon as a systemd service (system-wide).

This makes gridlevel run in the background and automatically start on boot. You must run this command as root.

By default, only root user is allowed to access the gridlevel daemon. Use --allow-non-root-access to let other users push samples and change settings without sudo.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}

			conf.SetAllowNonRootAccess(allowNonRootAccess)
			if allowNonRootAccess {
				logrus.Info("non-root users are allowed to access the gridlevel daemon.")
			} else {
				logrus.Info("only root user is allowed to access the gridlevel daemon.")
			}

			err = daemonutils.Install(configPath, unixSocketPath)
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to install daemon: %v. Are you root?", err)
			}

			err = conf.Save()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}

			logrus.Infof("installation succeeded")

			exePath, _ := os.Executable()

			cmd.Printf("systemd will use current binary (%s) at startup so please make sure you do not move this binary. Once this binary is moved or deleted, you will need to run `gridlevel install' again.\n", exePath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&allowNonRootAccess, "allow-non-root-access", false, "Allow non-root users to access gridlevel daemon.")

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall",
		Short:   "Uninstall gridlevel (system-wide)",
		GroupID: gInstallation,
		Long: `Uninstall gridlevel daemon from systemd (system-wide).

This stops gridlevel and removes its unit file. You must run this command as root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := daemonutils.Uninstall()
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to uninstall daemon: %v", err)
			}

			fmt.Println("successfully uninstalled")

			cmd.Printf("Your config is kept in %s, in case you want to use `gridlevel' again.\n", configPath)

			return nil
		},
	}
}
