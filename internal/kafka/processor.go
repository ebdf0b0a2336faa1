// Package kafka runs the finding-events consumer.
package kafka

import (
	"context"
	"crypto/tls"
	"log"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/cloudmend/cloudmend-backend/events/modules/findings"
	"github.com/cloudmend/cloudmend-backend/internal/config"
	"github.com/cloudmend/cloudmend-backend/internal/services"
)

// RunEventProcessor connects to Kafka and consumes finding detected events
// until ctx is cancelled. The consumer goroutine is started on success.
func RunEventProcessor(ctx context.Context, cfg config.KafkaConfig, service *services.FindingServiceWrapper) error {
	brokers := strings.Split(cfg.Broker, ",")

	// SASL/PLAIN is only configured when credentials are provided; local
	// development runs against a plaintext broker.
	username := os.Getenv("KAFKA_API_KEY")
	password := os.Getenv("KAFKA_API_SECRET")

	var dialer *kafka.Dialer

	if username != "" && password != "" {
		mechanism := plain.Mechanism{
			Username: username,
			Password: password,
		}

		dialer = &kafka.Dialer{
			Timeout:       10 * time.Second,
			DualStack:     true,
			SASLMechanism: mechanism,
			TLS:           &tls.Config{},
		}
	} else {
		dialer = &kafka.Dialer{
			Timeout:   10 * time.Second,
			DualStack: true,
		}
	}

	var conn *kafka.Conn
	var err error

	// Retry logic: 3 tries
	for i := 1; i <= 3; i++ {
		log.Printf("Kafka connection attempt %d/3...", i)
		conn, err = dialer.DialContext(ctx, "tcp", brokers[0])
		if err == nil {
			conn.Close()
			break
		}
		if i < 3 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		return err
	}

	readerConfig := kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MaxBytes: 10e6,
		Dialer:   dialer,
	}

	reader := kafka.NewReader(readerConfig)

	go func() {
		defer reader.Close()

		log.Println("Kafka Event Processor started. Listening for finding events...")

		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := reader.ReadMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					continue
				}
				if err := findings.HandleFindingDetected(ctx, msg.Value, service); err != nil {
					log.Printf("Failed to process finding event: %v", err)
				}
			}
		}
	}()

	return nil
}
