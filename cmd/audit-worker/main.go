package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"roomly/pkg/kafka"
	kafka_config "roomly/pkg/kafka/config"
	kafka_middleware "roomly/pkg/kafka/middleware"
	"roomly/pkg/logger"
)

const (
	ServiceName   = "audit-worker"
	ConsumerGroup = "audit-worker"
)

// The audit worker tails the reservation event stream and writes a structured
// audit line per event. It is intentionally stateless; replaying the topic
// rebuilds the full audit trail.
func main() {
	log := logger.New(logger.Config{
		Level:   logger.LevelInfo,
		Format:  logger.FormatJSON,
		Service: ServiceName,
	})

	kafkaCfg := kafka_config.Load()

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafka.TopicReservationEvents,
		ConsumerGroup,
		kafka.TopicReservationDLQ,
		auditHandler(log),
	)
	if err != nil {
		log.Fatal("Failed to initialize Kafka consumer", "error", err)
	}

	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware())
		consumer.Use(kafka_middleware.MetricsConsumerMiddleware())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		sig := <-shutdown
		log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	log.Info("Audit worker started", "topic", kafka.TopicReservationEvents, "group", ConsumerGroup)

	if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
		log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		log.Error("Failed to close consumer", "error", err)
	}
	log.Info("Audit worker stopped")
}

func auditHandler(log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event kafka.ReservationEvent
		if err := msg.DecodeValue(&event); err != nil {
			log.Error("Failed to decode reservation event",
				"event_id", msg.GetEventID(),
				"event_type", msg.GetEventType(),
				"error", err,
			)
			return err
		}

		log.Info("reservation event",
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"reservation_id", event.ReservationID,
			"room_id", event.RoomID,
			"owner_id", event.OwnerID,
			"actor_id", event.ActorID,
			"start_time", event.StartTime,
			"end_time", event.EndTime,
		)
		return nil
	}
}
