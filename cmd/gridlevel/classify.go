package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rcpd/gridlevel/pkg/centering"
	"github.com/rcpd/gridlevel/pkg/sensor"
)

// classifiedTransition is one transition seen while replaying a file.
type classifiedTransition struct {
	Index           int
	Transition      centering.Transition
	RotationDegrees float64
}

type classifyReport struct {
	Samples     int
	Skipped     int
	Counts      map[centering.Status]int
	Transitions []classifiedTransition
}

// classifySource runs every sample of src through a fresh classifier and
// overlay, the same way the daemon does, until src is exhausted.
func classifySource(ctx context.Context, src sensor.Source, adaptive bool) (*classifyReport, error) {
	report := &classifyReport{Counts: map[centering.Status]int{}}
	classifier := centering.NewClassifier()
	overlay := centering.NewOverlay()

	for {
		s, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return report, nil
		}
		if errors.Is(err, sensor.ErrSkip) {
			logrus.Debugf("skipping sample: %v", err)
			report.Skipped++
			continue
		}
		if err != nil {
			return report, err
		}

		res, _ := classifier.Observe(s, adaptive)
		_, tr := overlay.Apply(res)
		report.Samples++
		report.Counts[res.Status]++
		if tr != centering.NoTransition {
			report.Transitions = append(report.Transitions, classifiedTransition{
				Index:           report.Samples,
				Transition:      tr,
				RotationDegrees: res.Rotation * 180 / math.Pi,
			})
		}
	}
}

func NewClassifyCommand() *cobra.Command {
	var adaptive bool

	cmd := &cobra.Command{
		Use:     "classify FILE",
		Short:   "Classify a recorded sample file offline",
		GroupID: gAdvanced,
		Long: `Replay a recorded sample file through a local classifier and print the
transitions it would announce. No daemon is needed.

FILE holds one JSON object per line ({"x":..,"y":..,"z":..}), or CSV with an
x,y,z header when its name ends in .csv.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := sensor.OpenReplay(args[0], 0)
			if err != nil {
				return fmt.Errorf("failed to open %s: %v", args[0], err)
			}
			defer src.Close()

			report, err := classifySource(cmd.Context(), src, adaptive)
			if err != nil {
				return fmt.Errorf("failed to classify %s: %v", args[0], err)
			}

			for _, tr := range report.Transitions {
				cmd.Printf("#%-6d %-14s rotation %s\n", tr.Index, transition2Text(tr.Transition), bold("%.1f°", tr.RotationDegrees))
			}
			cmd.Printf("\n%s samples (%d skipped): %s centered, %s not centered, %s transitions\n",
				bold("%d", report.Samples), report.Skipped,
				bold("%d", report.Counts[centering.StatusCentered]),
				bold("%d", report.Counts[centering.StatusNotCentered]),
				bold("%d", len(report.Transitions)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "classify with adaptive thresholding, as with a screen reader on")

	return cmd
}
