package main

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rcpd/gridlevel/pkg/centering"
	"github.com/rcpd/gridlevel/pkg/types"
	"github.com/rcpd/gridlevel/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewAdaptiveCommand() *cobra.Command {
	return newEnableDisableCommand(
		"adaptive",
		"adaptive thresholding",
		`Enable or disable adaptive thresholding.

Turn this on when a screen reader is running. The centering tolerance then
widens from 2 to 3 degrees while the grid is centered, so small hand tremor
does not announce "not centered" over and over. Audio feedback is also only
played while this is on.`,
		func() (string, error) { return apiClient.SetAdaptive(true) },
		func() (string, error) { return apiClient.SetAdaptive(false) },
	)
}

func NewGuidesCommand() *cobra.Command {
	return newEnableDisableCommand(
		"guides",
		"alignment guides",
		`Enable or disable the alignment guides.

With guides disabled, transitions are still published as events but no
feedback command or Kafka message is produced.`,
		func() (string, error) { return apiClient.SetGuides(true) },
		func() (string, error) { return apiClient.SetGuides(false) },
	)
}

func NewSampleCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "sample X Y Z",
		Short:   "Push one gravity sample to the daemon",
		GroupID: gAdvanced,
		Long: `Push one gravity sample to the daemon and print how it was classified.

X, Y and Z are the gravity vector components in device coordinates, in units
of g. An upright device gives roughly "0 -1 0". Put "--" before the values
so negative numbers are not read as flags:

  gridlevel sample -- 0 -1 0`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloatArgs(args, "x", "y", "z")
			if err != nil {
				return err
			}

			resp, err := apiClient.PushSample(centering.Sample{X: v[0], Y: v[1], Z: v[2]})
			if err != nil {
				return fmt.Errorf("failed to push sample: %v", err)
			}

			cmd.Printf("Status: %s (rotation %s)\n", status2Text(resp.Result.Status), bold("%.1f°", resp.Result.Rotation*180/math.Pi))
			cmd.Printf("Displayed: %s, alpha %.2f\n", status2Text(resp.Overlay.Displayed), resp.Overlay.Alpha)
			if resp.Transition != centering.NoTransition {
				cmd.Printf("Transition: %s\n", transition2Text(resp.Transition))
			}

			return nil
		},
	}
}

func NewFrameCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "frame LUMA BRIGHTNESS",
		Short:   "Report camera scene brightness and get the grid tint",
		GroupID: gAdvanced,
		Long: `Report the centre-pixel luma (0-255) and the APEX brightness of a camera frame.

The scene counts as light when brightness is above 2.5 and luma is above 120.
Light scenes get a darker grid tint.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloatArgs(args, "luma", "brightness")
			if err != nil {
				return err
			}
			if v[0] < 0 || v[0] > 255 {
				return fmt.Errorf("luma must be between 0 and 255, got %v", v[0])
			}

			resp, err := apiClient.PushFrame(types.Frame{Luma: int(v[0]), Brightness: v[1]})
			if err != nil {
				return fmt.Errorf("failed to push frame: %v", err)
			}

			cmd.Printf("Scene: %s, tint: %s\n", bold("%s", resp.Scene), bold("%s", resp.Tint))
			return nil
		},
	}
}

func NewResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "reset",
		Short:   "Start a new centering session",
		GroupID: gBasic,
		Long: `Start a new centering session.

The daemon forgets the last status, so the next upright centered sample is
announced again.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			id, err := apiClient.Reset()
			if err != nil {
				return fmt.Errorf("failed to reset session: %v", err)
			}

			logrus.Infof("new session %s", id)
			return nil
		},
	}
}
