package sensor

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rcpd/gridlevel/pkg/centering"
)

const mqttBufferSize = 64

// MQTTSource receives JSON gravity samples published on an MQTT topic.
type MQTTSource struct {
	client   mqtt.Client
	topic    string
	payloads chan []byte
}

func newMQTTSource(topic string) *MQTTSource {
	return &MQTTSource{
		topic:    topic,
		payloads: make(chan []byte, mqttBufferSize),
	}
}

// NewMQTT connects to broker and subscribes to topic. The subscription is
// renewed on every reconnect.
func NewMQTT(broker, topic, clientID string) (*MQTTSource, error) {
	if broker == "" || topic == "" {
		return nil, pkgerrors.New("mqtt broker and topic are required")
	}
	if clientID == "" {
		clientID = "gridlevel"
	}

	s := newMQTTSource(topic)

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			token := c.Subscribe(topic, 0, s.handle)
			token.Wait()
			if err := token.Error(); err != nil {
				logrus.Errorf("failed to subscribe to %s: %v", topic, err)
				return
			}
			logrus.WithFields(logrus.Fields{
				"broker": broker,
				"topic":  topic,
			}).Info("subscribed to gravity samples")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logrus.Warnf("mqtt connection lost: %v", err)
		})

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to connect to mqtt broker %s", broker)
	}

	return s, nil
}

// handle runs on the paho callback goroutine. It never blocks; samples are
// dropped when the loop falls behind.
func (s *MQTTSource) handle(_ mqtt.Client, msg mqtt.Message) {
	select {
	case s.payloads <- msg.Payload():
	default:
		logrus.WithField("topic", msg.Topic()).Debug("sample buffer full, dropping sample")
	}
}

// Next waits for the next published sample.
func (s *MQTTSource) Next(ctx context.Context) (centering.Sample, error) {
	select {
	case <-ctx.Done():
		return centering.Sample{}, ctx.Err()
	case b := <-s.payloads:
		return DecodeSample(b)
	}
}

func (s *MQTTSource) Close() error {
	if s.client == nil {
		return nil
	}
	if s.client.IsConnected() {
		token := s.client.Unsubscribe(s.topic)
		token.WaitTimeout(time.Second)
	}
	s.client.Disconnect(250)
	return nil
}
