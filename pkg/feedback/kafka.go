package feedback

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/rcpd/gridlevel/pkg/events"
)

type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPlayer broadcasts transitions to a Kafka topic, keyed by session, so
// other services can react to the same cue.
type KafkaPlayer struct {
	writer kafkaMessageWriter
	topic  string
}

// NewKafkaPlayer creates a synchronous writer for topic on brokers.
func NewKafkaPlayer(brokers []string, topic string) (*KafkaPlayer, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, pkgerrors.New("kafka topic must not be empty")
	}
	if len(brokers) == 0 {
		return nil, pkgerrors.New("at least one kafka broker is required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: false,
		WriteTimeout:           5 * time.Second,
	}
	return newKafkaPlayerWithWriter(w, topic), nil
}

func newKafkaPlayerWithWriter(w kafkaMessageWriter, topic string) *KafkaPlayer {
	return &KafkaPlayer{writer: w, topic: topic}
}

func (p *KafkaPlayer) Play(ctx context.Context, ev events.TransitionEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to marshal transition %s", ev.ID)
	}
	msg := kafka.Message{
		Key:   []byte(ev.SessionID),
		Value: b,
		Time:  time.Unix(ev.Ts, 0),
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(events.CenteringTransition)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return pkgerrors.Wrapf(err, "failed to publish transition to %s", p.topic)
	}
	return nil
}

func (p *KafkaPlayer) Close() error {
	return p.writer.Close()
}
