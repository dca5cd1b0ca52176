package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/bioreactor-core/internal/infrastructure/logging"
	"github.com/nerrad567/bioreactor-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/bioreactor-core/internal/measurement"
)

// insertTimeout bounds a single store call for one message.
const insertTimeout = 5 * time.Second

// ErrAlreadyStarted is returned by Start on a running Ingestor.
var ErrAlreadyStarted = errors.New("ingest: already started")

// Subscriber is the part of the MQTT client the ingestor needs.
// *mqtt.Client satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Stats counts processed messages.
type Stats struct {
	Accepted   uint64 `json:"accepted"`
	Rejected   uint64 `json:"rejected"`
	Duplicates uint64 `json:"duplicates"`
	Failed     uint64 `json:"failed"`
}

// Ingestor subscribes to the measurement topic and writes readings to the store.
type Ingestor struct {
	sub    Subscriber
	repo   measurement.Repository
	topic  string
	qos    byte
	logger *logging.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool

	accepted   atomic.Uint64
	rejected   atomic.Uint64
	duplicates atomic.Uint64
	failed     atomic.Uint64
}

// New creates an Ingestor. It does not subscribe until Start.
func New(sub Subscriber, repo measurement.Repository, topic string, qos byte, logger *logging.Logger) (*Ingestor, error) {
	if sub == nil {
		return nil, errors.New("ingest: subscriber is required")
	}
	if repo == nil {
		return nil, errors.New("ingest: repository is required")
	}
	if topic == "" {
		return nil, errors.New("ingest: topic is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Ingestor{
		sub:    sub,
		repo:   repo,
		topic:  topic,
		qos:    qos,
		logger: logger.With("component", "ingest"),
	}, nil
}

// Start subscribes to the topic. Inserts run under contexts derived from ctx,
// so cancelling ctx aborts in-flight writes.
func (i *Ingestor) Start(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.started {
		return ErrAlreadyStarted
	}

	i.ctx, i.cancel = context.WithCancel(ctx)
	if err := i.sub.Subscribe(i.topic, i.qos, i.Handle); err != nil {
		i.cancel()
		return fmt.Errorf("ingest: subscribing to %s: %w", i.topic, err)
	}
	i.started = true

	i.logger.Info("measurement ingestion started", "topic", i.topic, "qos", i.qos)
	return nil
}

// Stop unsubscribes and cancels in-flight inserts. Stopping an Ingestor that
// was never started is a no-op.
func (i *Ingestor) Stop() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.started {
		return nil
	}
	i.started = false
	i.cancel()

	if err := i.sub.Unsubscribe(i.topic); err != nil && !errors.Is(err, mqtt.ErrNotConnected) {
		return fmt.Errorf("ingest: unsubscribing from %s: %w", i.topic, err)
	}

	s := i.Stats()
	i.logger.Info("measurement ingestion stopped",
		"accepted", s.Accepted,
		"rejected", s.Rejected,
		"duplicates", s.Duplicates,
		"failed", s.Failed,
	)
	return nil
}

// Handle decodes, validates and stores one message payload.
//
// The returned error is informational; the MQTT client logs it.
func (i *Ingestor) Handle(topic string, payload []byte) error {
	var reading measurement.Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		i.rejected.Add(1)
		i.logger.Warn("dropping malformed measurement", "topic", topic, "error", err)
		return fmt.Errorf("%w: invalid JSON payload", measurement.ErrInvalidArgument)
	}

	m, err := reading.Measurement()
	if err != nil {
		i.rejected.Add(1)
		i.logger.Warn("dropping invalid measurement", "topic", topic, "error", err)
		return err
	}

	ctx, cancel := context.WithTimeout(i.parent(), insertTimeout)
	defer cancel()

	if err := i.repo.Insert(ctx, m); err != nil {
		switch {
		case errors.Is(err, measurement.ErrConflict):
			i.duplicates.Add(1)
			i.logger.Debug("duplicate measurement ignored", "topic", topic, "timestamp", m.Timestamp)
		default:
			i.failed.Add(1)
			i.logger.Error("storing measurement failed", "topic", topic, "error", err)
		}
		return err
	}

	i.accepted.Add(1)
	return nil
}

// Stats returns a snapshot of the message counters.
func (i *Ingestor) Stats() Stats {
	return Stats{
		Accepted:   i.accepted.Load(),
		Rejected:   i.rejected.Load(),
		Duplicates: i.duplicates.Load(),
		Failed:     i.failed.Load(),
	}
}

// parent returns the Start context, or Background before Start.
func (i *Ingestor) parent() context.Context {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.ctx == nil {
		return context.Background()
	}
	return i.ctx
}
