package config

import "time"

type Config interface {
	AdaptiveThresholding() bool
	GuidesEnabled() bool
	AllowNonRootAccess() bool
	SampleInterval() time.Duration
	Source() string
	ReplayPath() string
	MQTTBroker() string
	MQTTTopic() string
	KafkaBrokers() []string
	KafkaTopic() string
	CenteredCommand() string
	UncenteredCommand() string
	TintColor() string

	SetAdaptiveThresholding(bool)
	SetGuidesEnabled(bool)
	SetAllowNonRootAccess(bool)
	SetTintColor(string)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
