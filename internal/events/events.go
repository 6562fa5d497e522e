// Package events publishes audit events to a NATS JetStream stream.
//
// The audit stream is optional: every method is safe to call on a nil
// *Publisher, which turns publishing into a no-op. Publish failures are
// logged and counted, never propagated; the Postgres row is the source of
// truth and the stream is an observer.
package events

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/leaseiq/leaseiq/internal/model"
	"github.com/leaseiq/leaseiq/pkg/logger"
	"github.com/leaseiq/leaseiq/pkg/metrics"
)

const (
	// StreamName is the name of the audit stream.
	StreamName = "LEASEIQ"

	// SubjectPrefix is the prefix for all audit subjects.
	SubjectPrefix = "leaseiq"
)

// Config holds NATS connection configuration.
type Config struct {
	URL      string
	CAFile   string
	CertFile string
	KeyFile  string
	Token    string
}

// Publisher wraps a NATS connection and JetStream context.
type Publisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *logger.Logger
}

// Connect establishes a NATS connection and ensures the audit stream exists.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}

	if cfg.CAFile != "" && cfg.CertFile != "" && cfg.KeyFile != "" {
		tlsConfig, err := createTLSConfig(cfg.CAFile, cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts = append(opts, nats.Secure(tlsConfig))
	}

	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &Publisher{conn: nc, js: js, logger: log}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}

	return p, nil
}

func (p *Publisher) ensureStream(ctx context.Context) error {
	if _, err := p.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Lease lifecycle and simulator audit events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

// IsConnected reports connectivity, false for a disabled publisher.
func (p *Publisher) IsConnected() bool {
	return p != nil && p.conn != nil && p.conn.IsConnected()
}

// LeaseEvent is the payload for lease lifecycle events.
type LeaseEvent struct {
	UserID  int       `json:"user_id"`
	LeaseID int64     `json:"lease_id"`
	CarName string    `json:"car_name,omitempty"`
	At      time.Time `json:"at"`
}

// SimulatorEvent is the payload for dealer simulator exchanges.
type SimulatorEvent struct {
	ThreadID string    `json:"thread_id"`
	LeaseID  int64     `json:"lease_id"`
	Branch   string    `json:"branch"`
	At       time.Time `json:"at"`
}

// LeaseSaved publishes a lease upsert event.
func (p *Publisher) LeaseSaved(ctx context.Context, userID int, lease *model.Lease) {
	subject := fmt.Sprintf("%s.lease.%d.saved", SubjectPrefix, userID)
	p.publish(ctx, subject, LeaseEvent{
		UserID:  userID,
		LeaseID: lease.ID,
		CarName: lease.CarName,
		At:      time.Now(),
	})
}

// LeaseDeleted publishes a lease delete event.
func (p *Publisher) LeaseDeleted(ctx context.Context, leaseID int64) {
	subject := fmt.Sprintf("%s.lease.deleted", SubjectPrefix)
	p.publish(ctx, subject, LeaseEvent{LeaseID: leaseID, At: time.Now()})
}

// SimulatorExchange publishes a dealer simulator exchange event.
func (p *Publisher) SimulatorExchange(ctx context.Context, threadID string, leaseID int64, branch string) {
	subject := fmt.Sprintf("%s.simulator.%s", SubjectPrefix, threadID)
	p.publish(ctx, subject, SimulatorEvent{
		ThreadID: threadID,
		LeaseID:  leaseID,
		Branch:   branch,
		At:       time.Now(),
	})
}

func (p *Publisher) publish(ctx context.Context, subject string, payload any) {
	if p == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to marshal audit event", zap.String("subject", subject), zap.Error(err))
		return
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		metrics.AuditPublishesTotal.WithLabelValues(subject, "error").Inc()
		p.logger.Warn("failed to publish audit event", zap.String("subject", subject), zap.Error(err))
		return
	}
	metrics.AuditPublishesTotal.WithLabelValues(subject, "ok").Inc()
}

func createTLSConfig(caFile, certFile, keyFile string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client cert: %w", err)
	}

	return &tls.Config{
		RootCAs:      caCertPool,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
