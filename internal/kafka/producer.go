package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-events/internal/config"
	"ms-events/internal/models"
)

type Producer struct {
	Writer *kafka.Writer
	Topics config.TopicConfig
}

func NewProducer(brokers []string, topics config.TopicConfig) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer, Topics: topics}
}

func (p *Producer) publish(topic, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(), kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
}

// PublishAttendeeRegistered streams a new registration, keyed by event so
// consumers see one event's registrations in order.
func (p *Producer) PublishAttendeeRegistered(attendee models.Attendee) error {
	return p.publish(p.Topics.AttendeeRegistered, attendee.EventID, attendee)
}

func (p *Producer) PublishAttendeeApproved(attendee models.Attendee) error {
	return p.publish(p.Topics.AttendeeApproved, attendee.EventID, attendee)
}

func (p *Producer) PublishAttendeeCheckedIn(attendee models.Attendee) error {
	return p.publish(p.Topics.AttendeeCheckedIn, attendee.EventID, attendee)
}

func (p *Producer) PublishAttendeesRemoved(eventID string, attendeeIDs []string) error {
	payload := map[string]any{
		"event_id":     eventID,
		"attendee_ids": attendeeIDs,
	}
	return p.publish(p.Topics.AttendeesRemoved, eventID, payload)
}

func (p *Producer) PublishEventUpdated(event models.Event) error {
	return p.publish(p.Topics.EventUpdated, event.ID, event)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
