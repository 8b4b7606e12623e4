package main

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rcpd/gridlevel/pkg/version"
)

func getVersion() (clientVersion, daemonVersion string, err error) {
	daemonVersion, err = apiClient.GetVersion()
	return version.Version, daemonVersion, err
}

func parseFloatArgs(args []string, names ...string) ([]float64, error) {
	if len(args) != len(names) {
		return nil, fmt.Errorf("invalid number of arguments, want %d", len(names))
	}

	values := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", names[i], err)
		}
		values[i] = v
	}

	return values, nil
}

func newEnableDisableCommand(
	use, short, long string,
	enableFunc func() (string, error),
	disableFunc func() (string, error),
) *cobra.Command {
	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Long:    long,
		GroupID: gBasic,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Enable " + short,
			RunE: func(_ *cobra.Command, _ []string) error {
				ret, err := enableFunc()
				if err != nil {
					return fmt.Errorf("failed to enable %s: %v", use, err)
				}
				if ret != "" {
					logrus.Infof("daemon responded: %s", ret)
				}
				logrus.Infof("successfully enabled %s", use)
				return nil
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Disable " + short,
			RunE: func(_ *cobra.Command, _ []string) error {
				ret, err := disableFunc()
				if err != nil {
					return fmt.Errorf("failed to disable %s: %v", use, err)
				}
				if ret != "" {
					logrus.Infof("daemon responded: %s", ret)
				}
				logrus.Infof("successfully disabled %s", use)
				return nil
			},
		},
	)

	return cmd
}
