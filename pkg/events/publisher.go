package events

import (
	"encoding/json"
	"fmt"

	"github.com/adjust/rmq/v5"
	"github.com/cityagent/emptyleg/pkg/transfer"
)

// QueuePublisher pushes match events onto a Redis queue for downstream notifiers
type QueuePublisher struct {
	queue rmq.Queue
}

func NewQueuePublisher(connection rmq.Connection, queueName string) (*QueuePublisher, error) {
	queue, err := connection.OpenQueue(queueName)
	if err != nil {
		return nil, fmt.Errorf("opening event queue %s: %w", queueName, err)
	}

	return &QueuePublisher{queue: queue}, nil
}

func (p *QueuePublisher) Publish(event *transfer.Event) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.queue.PublishBytes(eventBytes)
}
