package main

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rcpd/gridlevel/pkg/centering"
	"github.com/rcpd/gridlevel/pkg/config"
	"github.com/rcpd/gridlevel/pkg/types"
)

type statusData struct {
	status *types.Status
	config *config.RawFileConfig
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	st, err := apiClient.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return &statusData{
		status: st,
		config: conf,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of gridlevel",
		Long:    `Get the centering status, sampling statistics, and configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			cfg := config.NewFileFromConfig(data.config, "")
			if asJSON {
				return printStatusJSON(cmd, data, cfg)
			}

			st := data.status

			cmd.Println(bold("Centering:"))
			cmd.Printf("  Status: %s\n", status2Text(st.Status))
			cmd.Printf("  Displayed: %s", status2Text(st.Displayed))
			if st.Flat {
				cmd.Print(" (device is flat, grid is fading out)")
			}
			cmd.Println()
			cmd.Printf("  Rotation: %s\n", bold("%.1f°", st.RotationDegrees))
			cmd.Printf("  Tolerance for next sample: %s\n", bold("±%d°", st.NextThreshold))
			cmd.Printf("  Grid alpha: %s\n", bold("%.2f", st.Alpha))
			cmd.Printf("  Scene: %s, tint %s\n", bold("%s", st.Scene), bold("%s", st.Tint))

			cmd.Println()

			cmd.Println(bold("Sampling:"))
			cmd.Printf("  Source: %s\n", bold("%s", st.Source))
			cmd.Printf("  Session: %s\n", st.SessionID)
			cmd.Printf("  Samples: %s, skipped: %s, transitions: %s\n",
				bold("%d", st.Samples), bold("%d", st.Skipped), bold("%d", st.Transitions))
			if !st.LastSampleAt.IsZero() {
				cmd.Printf("  Last sample: %s ago (%d in the last 10s)\n",
					bold("%s", time.Since(st.LastSampleAt).Round(time.Millisecond)), st.RecentSamples)
			}

			cmd.Println()

			cmd.Println(bold("Configuration:"))
			cmd.Printf("  Adaptive thresholding: %s\n", bool2Text(cfg.AdaptiveThresholding()))
			cmd.Printf("  Guides enabled: %s\n", bool2Text(cfg.GuidesEnabled()))
			cmd.Printf("  Feedback active: %s\n", bool2Text(st.FeedbackEnabled))
			cmd.Printf("  Sample interval: %s\n", bold("%s", cfg.SampleInterval()))
			cmd.Printf("  Allow non-root users to access the daemon: %s\n", bool2Text(cfg.AllowNonRootAccess()))
			if topic := cfg.KafkaTopic(); topic != "" {
				cmd.Printf("  Kafka topic: %s\n", bold("%s", topic))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print status as JSON")

	return cmd
}

type statusJSON struct {
	Centering     statusCenteringJSON `json:"centering"`
	Sampling      statusSamplingJSON  `json:"sampling"`
	Configuration statusConfigJSON    `json:"configuration"`
}

type statusCenteringJSON struct {
	Status          centering.Status     `json:"status"`
	Displayed       centering.Status     `json:"displayed"`
	RotationDegrees float64              `json:"rotationDegrees"`
	ThresholdDeg    int                  `json:"thresholdDegrees"`
	Flat            bool                 `json:"flat"`
	Alpha           float64              `json:"alpha"`
	Scene           centering.Brightness `json:"scene"`
	Tint            string               `json:"tint"`
}

type statusSamplingJSON struct {
	Source        string     `json:"source"`
	SessionID     string     `json:"sessionId"`
	Samples       uint64     `json:"samples"`
	Skipped       uint64     `json:"skipped"`
	Transitions   uint64     `json:"transitions"`
	RecentSamples int        `json:"recentSamples"`
	LastSampleAt  *time.Time `json:"lastSampleAt"`
}

type statusConfigJSON struct {
	AdaptiveThresholding bool   `json:"adaptiveThresholding"`
	GuidesEnabled        bool   `json:"guidesEnabled"`
	FeedbackEnabled      bool   `json:"feedbackEnabled"`
	SampleIntervalMs     int64  `json:"sampleIntervalMs"`
	AllowNonRootAccess   bool   `json:"allowNonRootAccess"`
	KafkaTopic           string `json:"kafkaTopic"`
}

func printStatusJSON(cmd *cobra.Command, data *statusData, cfg *config.File) error {
	st := data.status

	var lastSampleAt *time.Time
	if !st.LastSampleAt.IsZero() {
		lastSampleAt = &st.LastSampleAt
	}

	out := statusJSON{
		Centering: statusCenteringJSON{
			Status:          st.Status,
			Displayed:       st.Displayed,
			RotationDegrees: math.Round(st.RotationDegrees*10) / 10,
			ThresholdDeg:    st.NextThreshold,
			Flat:            st.Flat,
			Alpha:           math.Round(st.Alpha*100) / 100,
			Scene:           st.Scene,
			Tint:            st.Tint,
		},
		Sampling: statusSamplingJSON{
			Source:        st.Source,
			SessionID:     st.SessionID,
			Samples:       st.Samples,
			Skipped:       st.Skipped,
			Transitions:   st.Transitions,
			RecentSamples: st.RecentSamples,
			LastSampleAt:  lastSampleAt,
		},
		Configuration: statusConfigJSON{
			AdaptiveThresholding: cfg.AdaptiveThresholding(),
			GuidesEnabled:        cfg.GuidesEnabled(),
			FeedbackEnabled:      st.FeedbackEnabled,
			SampleIntervalMs:     cfg.SampleInterval().Milliseconds(),
			AllowNonRootAccess:   cfg.AllowNonRootAccess(),
			KafkaTopic:           cfg.KafkaTopic(),
		},
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func status2Text(s centering.Status) string {
	switch s {
	case centering.StatusCentered:
		return color.New(color.Bold, color.FgGreen).Sprint(s)
	case centering.StatusNotCentered:
		return color.New(color.Bold, color.FgRed).Sprint(s)
	default:
		return bold("%s", s)
	}
}

func transition2Text(tr centering.Transition) string {
	switch tr {
	case centering.BecameCentered:
		return color.GreenString("centered")
	case centering.BecameUncentered:
		return color.RedString("not centered")
	default:
		return string(tr)
	}
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
