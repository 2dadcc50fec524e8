package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// queueSize is the buffer size for the event queue.
	queueSize = 1000

	// maxResponseBodySize limits how much of the response body we read.
	maxResponseBodySize = 1024

	defaultMaxRetries     = 3
	defaultTimeoutSeconds = 10
)

// Dispatcher fans an Event out to every matching configured Endpoint.
type Dispatcher struct {
	endpoints []Endpoint
	client    *http.Client
	queue     chan Event
	done      chan struct{}
	closed    int32
}

func NewDispatcher(endpoints []Endpoint) *Dispatcher {
	return &Dispatcher{
		endpoints: endpoints,
		client:    &http.Client{Timeout: 10 * time.Second},
		queue:     make(chan Event, queueSize),
		done:      make(chan struct{}),
	}
}

// Start begins processing events from the queue.
func (d *Dispatcher) Start() {
	go d.worker()
}

// Close gracefully shuts down the dispatcher, waiting for queued
// deliveries to drain. Safe to call more than once.
func (d *Dispatcher) Close() error {
	if !atomic.CompareAndSwapInt32(&d.closed, 0, 1) {
		return nil
	}
	close(d.queue)
	<-d.done
	return nil
}

// Dispatch queues event for delivery. Non-blocking: if the queue is
// full the event is dropped and logged, never applying backpressure to
// the store mutation that produced it.
func (d *Dispatcher) Dispatch(event Event) {
	select {
	case d.queue <- event:
	default:
		log.Warn().Str("event", event.Type).Str("app", event.App).Str("env", event.Env).
			Msg("webhook: queue full, dropping event")
	}
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for event := range d.queue {
		for _, ep := range d.endpoints {
			if ep.matches(event) {
				d.deliver(context.Background(), ep, event)
			}
		}
	}
}

// deliver POSTs event to ep, retrying with exponential backoff up to
// ep.MaxRetries times.
func (d *Dispatcher) deliver(ctx context.Context, ep Endpoint, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event", event.Type).Msg("webhook: failed to marshal event payload")
		return
	}

	signature := ComputeHMAC(payload, ep.Secret)
	deliveryID := uuid.NewString()
	maxRetries := ep.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	timeout := ep.TimeoutSeconds
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}

	operation := func() (struct{}, error) {
		reqCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, ep.URL, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Flagship-Signature", signature)
		req.Header.Set("X-Flagship-Event", event.Type)
		req.Header.Set("X-Flagship-Delivery", deliveryID)

		resp, err := d.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize))

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return struct{}{}, nil
		}
		return struct{}{}, fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}

	_, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(maxRetries+1)),
	)
	if err != nil {
		log.Warn().Err(err).Str("url", ep.URL).Str("event", event.Type).Str("delivery_id", deliveryID).
			Msg("webhook: delivery failed permanently")
		return
	}
	log.Info().Str("url", ep.URL).Str("event", event.Type).Str("delivery_id", deliveryID).
		Msg("webhook: delivery succeeded")
}
