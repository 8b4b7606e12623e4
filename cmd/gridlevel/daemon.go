package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rcpd/gridlevel/pkg/daemon"
	"github.com/rcpd/gridlevel/pkg/version"
)

var (
	// alwaysAllowNonRootAccess indicates whether to always allow non-root users to access the gridlevel daemon.
	alwaysAllowNonRootAccess = false
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "daemon",
		Short:   "Run gridlevel daemon in the foreground",
		GroupID: gAdvanced,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("gridlevel daemon starting")
			return daemon.Run(configPath, unixSocketPath, alwaysAllowNonRootAccess)
		},
	}

	f := cmd.Flags()

	f.BoolVar(&alwaysAllowNonRootAccess, "always-allow-non-root-access", false,
		"Always allow non-root users to access the daemon.")

	return cmd
}
