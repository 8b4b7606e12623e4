package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rcpd/gridlevel/pkg/events"
)

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   "Print centering transitions as they happen",
		GroupID: gBasic,
		Long: `Subscribe to daemon events and print every centering transition and
settings change until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Fail early with a friendly error if the daemon is not there.
			if _, err := apiClient.GetVersion(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for ev := range apiClient.SubscribeEvents(ctx) {
				logrus.WithFields(logrus.Fields{
					"event": ev.Name,
					"data":  string(ev.Data),
				}).Debug("new event")

				switch ev.Name {
				case events.CenteringTransition:
					payload, err := events.DecodeAs[events.TransitionEvent](ev)
					if err != nil {
						logrus.WithError(err).Error("failed to decode centering.transition event")
						continue
					}
					cmd.Printf("%s  %s  rotation %s\n",
						time.Unix(payload.Ts, 0).Format(time.Kitchen),
						transition2Text(payload.Transition),
						bold("%.1f°", payload.RotationDegrees))
				case events.SettingsChanged:
					payload, err := events.DecodeAs[events.SettingsChangedEvent](ev)
					if err != nil {
						logrus.WithError(err).Error("failed to decode settings.changed event")
						continue
					}
					cmd.Printf("%s  settings: adaptive %s, guides %s\n",
						time.Unix(payload.Ts, 0).Format(time.Kitchen),
						bool2Text(payload.Adaptive), bool2Text(payload.Guides))
				}
			}

			return nil
		},
	}
}
