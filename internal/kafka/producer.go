package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/zvrva/railbooking/internal/domain"
)

// BookingEvent is the payload published on booking lifecycle changes
// and consumed by the notification worker.
type BookingEvent struct {
	Type            string          `json:"type"`
	Reference       string          `json:"reference"`
	UserID          int64           `json:"user_id"`
	Email           string          `json:"email,omitempty"`
	DepartureID     int64           `json:"departure_id"`
	ClassKey        domain.ClassKey `json:"class_key"`
	SeatCount       int             `json:"seat_count"`
	TotalPriceCents int64           `json:"total_price_cents"`
	Status          string          `json:"status"`
	SeatNumber      string          `json:"seat_number,omitempty"`
	Code            string          `json:"code,omitempty"`
}

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventVerificationMail = "verification_email"
	EventPasswordReset    = "password_reset_email"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
