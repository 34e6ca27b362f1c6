package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

var ErrNotConnected = errors.New("not connected to mqtt broker")

// ScoreUpdated is published once a score update batch is recorded.
type ScoreUpdated struct {
	MissionID    string    `json:"mission_id"`
	TaskID       string    `json:"task_id"`
	AvgScore     float64   `json:"avg_score"`
	ImageUpdates int       `json:"image_updates"`
	ImageErrors  []string  `json:"image_errors,omitempty"`
	Time         time.Time `json:"time"`
}

// Publisher sends score events to an MQTT topic. A nil *Publisher drops every event.
type Publisher struct {
	client mqtt.Client
	topic  string
	logger *zerolog.Logger
}

type Options struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
}

// Connect dials the broker. It returns a nil publisher when no broker is configured.
func Connect(opts Options, l *zerolog.Logger) (*Publisher, error) {
	if opts.Broker == "" {
		return nil, nil
	}
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.Broker)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetUsername(opts.Username)
	clientOpts.SetPassword(opts.Password)
	clientOpts.SetCleanSession(true)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectRetry(true)
	clientOpts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		l.Warn().Err(err).Str("broker", opts.Broker).Msg("connection to mqtt broker lost")
	})

	client := mqtt.NewClient(clientOpts)
	token := client.Connect()
	if !token.WaitTimeout(30 * time.Second) {
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection error: %w", err)
	}
	l.Info().Str("broker", opts.Broker).Str("topic", opts.Topic).Msg("connected to mqtt broker")
	return NewPublisher(client, opts.Topic, l), nil
}

func NewPublisher(client mqtt.Client, topic string, l *zerolog.Logger) *Publisher {
	return &Publisher{client: client, topic: topic, logger: l}
}

// PublishScoreUpdated sends the event to <topic>/<mission_id>.
func (p *Publisher) PublishScoreUpdated(ctx context.Context, ev ScoreUpdated) error {
	if p == nil {
		return nil
	}
	if !p.client.IsConnected() {
		return ErrNotConnected
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	topic := p.topic + "/" + ev.MissionID
	token := p.client.Publish(topic, 1, false, payload)

	timeout := 10 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err = token.Error(); err != nil {
		return err
	}
	p.logger.Debug().Str("topic", topic).Msg("score event published")
	return nil
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
