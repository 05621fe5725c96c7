package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kusina-pos/api/internal/config"
	"github.com/kusina-pos/api/internal/database"
	"github.com/kusina-pos/api/internal/mq"
	"github.com/kusina-pos/api/internal/service"
)

// The relay listens on the fiscal export queue: every settled event wakes it
// up to drain that branch's pending export rows toward the tax endpoint. The
// DB rows are the durable source of truth, so a lost message only delays
// delivery until the next settlement on the branch.
func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.AMQPURL == "" {
		log.Fatal("AMQP_URL is required for the export relay")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	broker, err := mq.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatalf("Unable to connect to message broker: %v", err)
	}
	defer broker.Close()
	if err := broker.DeclareTopology(); err != nil {
		log.Fatalf("Failed to declare broker topology: %v", err)
	}
	log.Println("Connected to message broker")

	relay := service.NewExportRelay(pool, func(db database.DBTX) service.ExportStore {
		return database.New(db)
	}, &httpSender{endpoint: cfg.FiscalExportURL, client: &http.Client{Timeout: 10 * time.Second}})

	deliveries, err := broker.Consume(mq.FiscalExportQueue, "fiscal-export-relay", 10)
	if err != nil {
		log.Fatalf("Failed to start consumer: %v", err)
	}

	log.Printf("Export relay running, posting to %s", cfg.FiscalExportURL)
	for d := range deliveries {
		branchID, err := branchFromRoutingKey(d.RoutingKey)
		if err != nil {
			log.Printf("ERROR: %v", err)
			_ = d.Nack(false, false) // malformed key goes to the DLQ
			continue
		}

		sent, err := relay.Drain(ctx, branchID)
		if err != nil {
			log.Printf("ERROR: drain branch %s: %v", branchID, err)
			_ = d.Nack(false, true)
			continue
		}
		if sent > 0 {
			log.Printf("Exported %d payload(s) for branch %s", sent, branchID)
		}
		_ = d.Ack(false)
	}
}

// branchFromRoutingKey parses settlement.<branch_id>.<event>.
func branchFromRoutingKey(key string) (uuid.UUID, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 {
		return uuid.Nil, fmt.Errorf("unexpected routing key %q", key)
	}
	branchID, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, fmt.Errorf("bad branch id in routing key %q: %w", key, err)
	}
	return branchID, nil
}

// httpSender posts the stored payload verbatim; the settlement transaction
// already serialized it.
type httpSender struct {
	endpoint string
	client   *http.Client
}

func (s *httpSender) Send(ctx context.Context, payload database.ExportPayload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload.Payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Export-ID", payload.ID.String())

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("export endpoint returned %s", resp.Status)
	}
	return nil
}
