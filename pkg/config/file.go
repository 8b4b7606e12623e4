package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rcpd/gridlevel/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		// Screen-reader users opt in, usually by the host toggling it at runtime.
		AdaptiveThresholding: ptr.To(false),
		GuidesEnabled:        ptr.To(true),
		AllowNonRootAccess:   ptr.To(false),
		SampleIntervalMs:     ptr.To(100),
		Source:               ptr.To("push"),
		ReplayPath:           ptr.To(""),
		MQTTBroker:           ptr.To("tcp://localhost:1883"),
		MQTTTopic:            ptr.To("gridlevel/gravity"),
		KafkaBrokers:         []string{},
		KafkaTopic:           ptr.To(""),
		CenteredCommand:      ptr.To(""),
		UncenteredCommand:    ptr.To(""),
		TintColor:            ptr.To("#FFCC00"),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	AdaptiveThresholding *bool    `json:"adaptiveThresholding,omitempty"`
	GuidesEnabled        *bool    `json:"guidesEnabled,omitempty"`
	AllowNonRootAccess   *bool    `json:"allowNonRootAccess,omitempty"`
	SampleIntervalMs     *int     `json:"sampleIntervalMs,omitempty"`
	Source               *string  `json:"source,omitempty"`
	ReplayPath           *string  `json:"replayPath,omitempty"`
	MQTTBroker           *string  `json:"mqttBroker,omitempty"`
	MQTTTopic            *string  `json:"mqttTopic,omitempty"`
	KafkaBrokers         []string `json:"kafkaBrokers,omitempty"`
	KafkaTopic           *string  `json:"kafkaTopic,omitempty"`
	CenteredCommand      *string  `json:"centeredCommand,omitempty"`
	UncenteredCommand    *string  `json:"uncenteredCommand,omitempty"`
	TintColor            *string  `json:"tintColor,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		AdaptiveThresholding: ptr.To(c.AdaptiveThresholding()),
		GuidesEnabled:        ptr.To(c.GuidesEnabled()),
		AllowNonRootAccess:   ptr.To(c.AllowNonRootAccess()),
		SampleIntervalMs:     ptr.To(int(c.SampleInterval() / time.Millisecond)),
		Source:               ptr.To(c.Source()),
		ReplayPath:           ptr.To(c.ReplayPath()),
		MQTTBroker:           ptr.To(c.MQTTBroker()),
		MQTTTopic:            ptr.To(c.MQTTTopic()),
		KafkaBrokers:         c.KafkaBrokers(),
		KafkaTopic:           ptr.To(c.KafkaTopic()),
		CenteredCommand:      ptr.To(c.CenteredCommand()),
		UncenteredCommand:    ptr.To(c.UncenteredCommand()),
		TintColor:            ptr.To(c.TintColor()),
	}

	return rawConfig, nil
}

// valueOr returns *v, or *def when v is unset.
func valueOr[T any](v, def *T) T {
	if v != nil {
		return *v
	}
	return *def
}

func (f *File) read() *RawFileConfig {
	if f.c == nil {
		panic("config is nil")
	}
	return f.c
}

func (f *File) AdaptiveThresholding() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return valueOr(f.read().AdaptiveThresholding, defaultFileConfig.AdaptiveThresholding)
}

func (f *File) GuidesEnabled() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return valueOr(f.read().GuidesEnabled, defaultFileConfig.GuidesEnabled)
}

func (f *File) AllowNonRootAccess() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return valueOr(f.read().AllowNonRootAccess, defaultFileConfig.AllowNonRootAccess)
}

// SampleInterval falls back to the default for non-positive values.
func (f *File) SampleInterval() time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ms := valueOr(f.read().SampleIntervalMs, defaultFileConfig.SampleIntervalMs)
	if ms <= 0 {
		ms = *defaultFileConfig.SampleIntervalMs
	}
	return time.Duration(ms) * time.Millisecond
}

func (f *File) Source() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return valueOr(f.read().Source, defaultFileConfig.Source)
}

func (f *File) ReplayPath() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return valueOr(f.read().ReplayPath, defaultFileConfig.ReplayPath)
}

func (f *File) MQTTBroker() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return valueOr(f.read().MQTTBroker, defaultFileConfig.MQTTBroker)
}

func (f *File) MQTTTopic() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return valueOr(f.read().MQTTTopic, defaultFileConfig.MQTTTopic)
}

func (f *File) KafkaBrokers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	brokers := f.read().KafkaBrokers
	if brokers == nil {
		brokers = defaultFileConfig.KafkaBrokers
	}
	return append([]string(nil), brokers...)
}

func (f *File) KafkaTopic() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return valueOr(f.read().KafkaTopic, defaultFileConfig.KafkaTopic)
}

func (f *File) CenteredCommand() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return valueOr(f.read().CenteredCommand, defaultFileConfig.CenteredCommand)
}

func (f *File) UncenteredCommand() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return valueOr(f.read().UncenteredCommand, defaultFileConfig.UncenteredCommand)
}

func (f *File) TintColor() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return valueOr(f.read().TintColor, defaultFileConfig.TintColor)
}

func (f *File) SetAdaptiveThresholding(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read().AdaptiveThresholding = &b
}

func (f *File) SetGuidesEnabled(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read().GuidesEnabled = &b
}

func (f *File) SetAllowNonRootAccess(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read().AllowNonRootAccess = &b
}

func (f *File) SetTintColor(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read().TintColor = &s
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"adaptiveThresholding": f.AdaptiveThresholding(),
		"guidesEnabled":        f.GuidesEnabled(),
		"allowNonRootAccess":   f.AllowNonRootAccess(),
		"sampleInterval":       f.SampleInterval().String(),
		"source":               f.Source(),
		"kafkaTopic":           f.KafkaTopic(),
		"tintColor":            f.TintColor(),
	}
}
