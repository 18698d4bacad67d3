package events

import (
	"encoding/json"
	"sync"

	"github.com/adjust/rmq/v5"
	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
)

type matchEvent struct {
	Type      transfer.EventType
	Timestamp string
	Body      json.RawMessage
}

// NotifyBatchConsumer logs every match event it receives. Message delivery to people is handled elsewhere.
type NotifyBatchConsumer struct {
	mutex  sync.Mutex
	counts map[transfer.EventType]int
}

func NewNotifyBatchConsumer() *NotifyBatchConsumer {
	return &NotifyBatchConsumer{
		counts: map[transfer.EventType]int{},
	}
}

func (c *NotifyBatchConsumer) Consume(batch rmq.Deliveries) {
	payloads := batch.Payloads()

	for _, payload := range payloads {
		c.handle(payload)
	}

	if ackErrors := batch.Ack(); len(ackErrors) > 0 {
		for _, err := range ackErrors {
			log.Error().Err(err).Msg("Failed to consume from queue")
		}
	}
}

func (c *NotifyBatchConsumer) handle(payload string) {
	var event matchEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		log.Error().Err(err).Msg("Failed to decode match event")
		return
	}

	c.mutex.Lock()
	c.counts[event.Type]++
	c.mutex.Unlock()

	switch event.Type {
	case transfer.EventTypeMatchCreated:
		var match transfer.Match
		if err := json.Unmarshal(event.Body, &match); err != nil {
			log.Error().Err(err).Msg("Failed to decode created match")
			return
		}

		log.Info().
			Str("ride", match.RideID).
			Str("matched", match.MatchedID).
			Str("source", string(match.MatchSource)).
			Str("direction", string(match.MatchDirection)).
			Int("waitMinutes", match.TimeDifferenceMin).
			Bool("doubleUtilized", match.DoubleUtilized).
			Msg("New match")

		if log.Debug().Enabled() {
			pretty.Println(match)
		}
	case transfer.EventTypeMatchOutdated:
		var body transfer.MatchOutdatedEventBody
		if err := json.Unmarshal(event.Body, &body); err != nil {
			log.Error().Err(err).Msg("Failed to decode outdated match")
			return
		}

		log.Info().
			Str("ride", body.RideID).
			Str("matched", body.MatchedID).
			Str("source", string(body.Source)).
			Time("outdatedAt", body.OutdatedAt).
			Msg("Match outdated")
	default:
		log.Warn().Str("type", string(event.Type)).Msg("Unknown match event type")
	}
}

func (c *NotifyBatchConsumer) Count(eventType transfer.EventType) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.counts[eventType]
}
