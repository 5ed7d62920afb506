package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"guardian-service/internal/config"
	"guardian-service/internal/emergency"
)

// triggerEvent is an external SOS trigger, typically from a paired wearable
// or panic button, arming an emergency session with a reason string.
type triggerEvent struct {
	UserID       int64  `json:"user_id"`
	DisplayName  string `json:"display_name"`
	Reason       string `json:"reason"`
	DeviceID     string `json:"device_id"`
	TrackingCode string `json:"tracking_code"`
}

// Consumer feeds external trigger events into the emergency manager.
type Consumer struct {
	reader *kafka.Reader
	mgr    *emergency.Manager
	logger *logrus.Logger
}

// NewConsumer returns nil when no broker is configured; the trigger feed is
// optional.
func NewConsumer(cfg config.Config, mgr *emergency.Manager, logger *logrus.Logger) *Consumer {
	if cfg.Kafka.Broker == "" {
		return nil
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.Kafka.Broker},
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	return &Consumer{reader: reader, mgr: mgr, logger: logger}
}

// Start consumes trigger events until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	c.logger.Infof("Kafka trigger consumer started on topic %s", c.reader.Config().Topic)
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.logger.Errorf("Read trigger message failed: %v", err)
			continue
		}

		var ev triggerEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.logger.Errorf("Unmarshal trigger message failed: %v", err)
			continue
		}
		if ev.UserID < 1 || ev.Reason == "" {
			c.logger.Errorf("Invalid trigger message: missing user_id or reason")
			continue
		}

		if _, err := c.mgr.Trigger(ctx, ev.UserID, ev.DisplayName, ev.Reason, ev.TrackingCode); err != nil {
			if errors.Is(err, emergency.ErrSessionActive) {
				c.logger.Warnf("Trigger from device %s ignored: session already active", ev.DeviceID)
				continue
			}
			c.logger.Errorf("Trigger from device %s failed: %v", ev.DeviceID, err)
			continue
		}
		c.logger.Infof("External trigger accepted from device %s for user %d", ev.DeviceID, ev.UserID)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Errorf("Kafka reader close failed: %v", err)
	}
}
