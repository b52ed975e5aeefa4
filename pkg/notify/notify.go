package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/pkg/config"
)

// Subjects published by the API. They are prefixed with NATS_SUBJECT_PREFIX.
const (
	SubjectCascadePartial   = "cascade.partial"
	SubjectCascadeReconcile = "cascade.reconcile"
	SubjectFeePayment       = "fee.payment"
	SubjectNoticeCreated    = "notice.created"
	SubjectEventCreated     = "event.created"
	SubjectMessageSent      = "message.sent"
)

// Publisher emits domain events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, interface{}) error { return nil }

// Bus publishes JSON encoded events on NATS and serves request handlers.
type Bus struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger
}

// Connect dials the broker. Reconnects are handled by the client.
func Connect(cfg config.NATSConfig, logger *zap.Logger) (*Bus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("school-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Bus{conn: conn, prefix: cfg.SubjectPrefix, logger: logger}, nil
}

func (b *Bus) subject(name string) string {
	if b.prefix == "" {
		return name
	}
	return b.prefix + "." + name
}

// Publish marshals payload to JSON and publishes it.
func (b *Bus) Publish(_ context.Context, subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}
	if err := b.conn.Publish(b.subject(subject), data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Reply answers requests on subject with the handler's result encoded as JSON.
func (b *Bus) Reply(subject string, handler func(ctx context.Context, data []byte) (interface{}, error)) (*nats.Subscription, error) {
	return b.conn.Subscribe(b.subject(subject), func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result, err := handler(ctx, msg.Data)
		body := map[string]interface{}{"success": err == nil}
		if err != nil {
			body["message"] = err.Error()
		} else {
			body["data"] = result
		}
		if msg.Reply == "" {
			return
		}
		data, _ := json.Marshal(body)
		if err := msg.Respond(data); err != nil {
			b.logger.Warn("nats respond failed", zap.String("subject", msg.Subject), zap.Error(err))
		}
	})
}

// Healthy reports whether the connection is up.
func (b *Bus) Healthy() bool {
	return b != nil && b.conn.IsConnected()
}

// Close drains pending messages and closes the connection.
func (b *Bus) Close() error {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.Drain()
}
