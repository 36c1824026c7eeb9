package broker

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const SubjectResponderAdvisories = "responders.advisories"

type IBroker interface {
	Publish(subject string, data any) error
	Close()
}

type natsBroker struct {
	conn *nats.Conn
	log  *logrus.Logger
}

func New(url, token string, log *logrus.Logger) (IBroker, error) {
	opts := []nats.Option{
		nats.Name("panic-button"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithField("error", err.Error()).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &natsBroker{conn: nc, log: log}, nil
}

func (b *natsBroker) Publish(subject string, data any) error {
	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := b.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (b *natsBroker) Close() {
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}
