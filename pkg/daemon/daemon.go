package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rcpd/gridlevel/pkg/config"
	"github.com/rcpd/gridlevel/pkg/events"
	"github.com/rcpd/gridlevel/pkg/feedback"
	"github.com/rcpd/gridlevel/pkg/metrics"
	"github.com/rcpd/gridlevel/pkg/sensor"
)

var (
	conf       config.Config
	trk        *tracker
	sseHub     *events.EventHub
	promMetric *metrics.Metrics
	sourceKind string
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/config", getConfig)
	router.GET("/status", getStatus)
	router.PUT("/adaptive", setAdaptive)
	router.PUT("/guides", setGuides)
	router.POST("/sample", postSample)
	router.POST("/frame", postFrame)
	router.POST("/reset", postReset)
	router.GET("/events", getEvents)
	router.GET("/metrics", gin.WrapH(promMetric.Handler()))
	router.GET("/version", getVersion)

	return router
}

// setup wires the package state for a loaded config. Run and tests share it.
func setup(c config.Config, player feedback.Player, kind sensor.Kind) {
	conf = c
	sampleInterval = c.SampleInterval()
	sseHub = events.NewEventHub()
	promMetric = metrics.New()
	trk = newTracker(player, promMetric, sseHub)
	if kind == "" {
		kind = sensor.KindPush
	}
	sourceKind = string(kind)
	sampleRecorder.ClearRecords()
}

// feedbackQueueSize bounds transitions waiting for a slow player.
const feedbackQueueSize = 16

// newPlayer builds the configured players behind a queue, so a slow command
// or broker never stalls sample processing.
func newPlayer(c config.Config) (feedback.Player, error) {
	p, err := feedback.New(feedback.Options{
		CenteredCommand:   c.CenteredCommand(),
		UncenteredCommand: c.UncenteredCommand(),
		KafkaBrokers:      c.KafkaBrokers(),
		KafkaTopic:        c.KafkaTopic(),
	})
	if err != nil {
		return nil, err
	}
	return feedback.NewQueue(p, feedbackQueueSize, func(ev events.TransitionEvent, err error) {
		promMetric.ObserveFeedbackError()
		logrus.Errorf("failed to play feedback for %s: %v", ev.Transition, err)
	}), nil
}

// startupSettings are read once when the daemon starts. A reload reports
// changes to them but cannot apply them.
type startupSettings struct {
	source         string
	replayPath     string
	mqttBroker     string
	mqttTopic      string
	sampleInterval time.Duration
}

func startupSettingsOf(c config.Config) startupSettings {
	return startupSettings{
		source:         c.Source(),
		replayPath:     c.ReplayPath(),
		mqttBroker:     c.MQTTBroker(),
		mqttTopic:      c.MQTTTopic(),
		sampleInterval: c.SampleInterval(),
	}
}

// changedKeys names the config keys in c that differ from s.
func (s startupSettings) changedKeys(c config.Config) []string {
	now := startupSettingsOf(c)
	var keys []string
	if now.source != s.source {
		keys = append(keys, "source")
	}
	if now.replayPath != s.replayPath {
		keys = append(keys, "replayPath")
	}
	if now.mqttBroker != s.mqttBroker {
		keys = append(keys, "mqttBroker")
	}
	if now.mqttTopic != s.mqttTopic {
		keys = append(keys, "mqttTopic")
	}
	if now.sampleInterval != s.sampleInterval {
		keys = append(keys, "sampleIntervalMs")
	}
	return keys
}

// reloadConfig re-reads the config file and rebuilds the feedback players.
// It returns the changed keys that only take effect after a restart.
func reloadConfig(started startupSettings) ([]string, error) {
	if err := conf.Load(); err != nil {
		return nil, err
	}

	player, err := newPlayer(conf)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to rebuild feedback players")
	}
	if err := trk.setPlayer(player); err != nil {
		logrus.Errorf("failed to close previous feedback players: %v", err)
	}
	publishSettings()

	pending := started.changedKeys(conf)
	if len(pending) > 0 {
		logrus.WithField("keys", pending).Warn("these settings take effect after a restart")
	}
	if f, ok := conf.(*config.File); ok {
		logrus.WithFields(f.LogrusFields()).Infof("config reloaded")
	} else {
		logrus.Info("config reloaded")
	}
	return pending, nil
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	c, err := config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(c.LogrusFields()).Infof("config loaded")

	player, err := newPlayer(c)
	if err != nil {
		logrus.Fatalf("failed to set up feedback: %v", err)
	}

	kind := sensor.Kind(c.Source())
	src, err := sensor.New(sensor.Options{
		Kind:       kind,
		Interval:   c.SampleInterval(),
		ReplayPath: c.ReplayPath(),
		MQTTBroker: c.MQTTBroker(),
		MQTTTopic:  c.MQTTTopic(),
	})
	if err != nil {
		logrus.Fatalf("failed to open sample source %q: %v", kind, err)
	}

	setup(c, player, kind)
	router := setupRoutes()

	// Receive SIGHUP to reload config
	started := startupSettingsOf(c)
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			if _, err := reloadConfig(started); err != nil {
				logrus.Errorf("failed to reload config: %v", err)
			}
		}
	}()

	// Cancelling ctx stops the sampling loop and ends open event streams.
	ctx, stop := context.WithCancel(context.Background())
	srv := &http.Server{
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	var wg sync.WaitGroup
	if src != nil {
		wg.Add(2)
		go func() {
			defer wg.Done()
			logrus.WithField("source", kind).Debugln("sampling loop starts")
			sampleLoop(ctx, src)
		}()
		go func() {
			defer wg.Done()
			watchSampleRate(ctx)
		}()
	} else {
		logrus.Info("no background source, waiting for samples on POST /sample")
	}

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("stopping sampling loop")
	stop()
	wg.Wait()

	logrus.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	if src != nil {
		if err := src.Close(); err != nil {
			logrus.Errorf("failed to close sample source: %v", err)
		}
	}

	logrus.Info("closing feedback players")
	if err := trk.closePlayer(); err != nil {
		logrus.Errorf("failed to close feedback players: %v", err)
	}

	logrus.Info("exiting")
	return nil
}
