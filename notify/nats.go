package notify

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/nats-io/nats.go"

	"github.com/moyoez/mediaupload/types"
)

const DefaultNatsSubject = "mediaupload"

// NatsSink publishes notifications on <prefix>.<notification type>.
type NatsSink struct {
	nc     *nats.Conn
	prefix string
}

func NewNatsSink(url, prefix string) (*NatsSink, error) {
	nc, err := nats.Connect(url,
		nats.Name("mediaupload"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NatsSink{nc: nc, prefix: subjectPrefix(prefix)}, nil
}

func (s *NatsSink) Name() string { return "nats:" + s.prefix }

func (s *NatsSink) Send(notification *types.Notification) error {
	if notification == nil {
		return nil
	}
	payload, err := sonic.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to serialize notification data: %w", err)
	}
	subject := Subject(s.prefix, notification.Type)
	if err := s.nc.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending publishes and closes the connection.
func (s *NatsSink) Close() {
	if err := s.nc.Drain(); err != nil {
		s.nc.Close()
	}
}

// Subject joins prefix and notification type into a NATS subject.
func Subject(prefix, notifyType string) string {
	return subjectPrefix(prefix) + "." + notifyType
}

func subjectPrefix(prefix string) string {
	if prefix == "" {
		return DefaultNatsSubject
	}
	return prefix
}
