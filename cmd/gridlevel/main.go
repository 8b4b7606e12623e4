package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rcpd/gridlevel/pkg/client"
)

var (
	logLevel       = "info"
	unixSocketPath = "/var/run/gridlevel.sock"
	configPath     = "/etc/gridlevel.json"
)

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
	}
)

var apiClient *client.Client

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: gridlevel daemon is not running")
		fmt.Fprintln(os.Stderr, "Start it with 'gridlevel daemon' or check --daemon-socket.")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or set allowNonRootAccess in the config, or start the daemon with '--always-allow-non-root-access'")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

// needsDaemon reports whether cmd talks to a running daemon.
func needsDaemon(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "daemon", "classify", "version", "help", "completion", "install", "uninstall":
		return false
	}
	return true
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gridlevel",
		Short: "gridlevel tells when a camera grid is aligned with gravity",
		Long: `gridlevel classifies device gravity samples as centered or not centered
and announces every change once, so a camera user who cannot see the screen
knows when the picture is level.

The daemon ingests samples from a mock, replay, MQTT or HTTP push source and
fans transitions out to server-sent events, a feedback command and Kafka.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			apiClient = client.NewClient(unixSocketPath)

			if !needsDaemon(cmd) {
				return nil
			}

			if clientVersion, daemonVersion, err := getVersion(); err == nil {
				if daemonVersion != clientVersion {
					logrus.WithFields(logrus.Fields{
						"clientVersion": clientVersion,
						"daemonVersion": daemonVersion,
					}).Warn("Version mismatch between client and daemon. gridlevel may not work as expected.")
				}
			} else if errors.Is(err, client.ErrNotFound) {
				logrus.Error("gridlevel daemon is too old to report its version.")
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "gridlevel daemon unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewStatusCommand(),
		NewAdaptiveCommand(),
		NewGuidesCommand(),
		NewSampleCommand(),
		NewFrameCommand(),
		NewResetCommand(),
		NewWatchCommand(),
		NewClassifyCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
	)

	return cmd
}
