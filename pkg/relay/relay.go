package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"flickrscrapr/pkg/config"
	errs "flickrscrapr/pkg/errors"
	"flickrscrapr/pkg/logger"
	"flickrscrapr/pkg/models"
)

var (
	// ErrNotStarted is returned by Submit before Start
	ErrNotStarted = errors.New("relay is not started")
	// ErrStopped is returned by Submit after Stop
	ErrStopped = errors.New("relay is stopped")
)

// Sender accepts scrape messages for forwarding
type Sender interface {
	Submit(msg models.Message) error
}

// Relay forwards messages to the collector. One dispatcher goroutine reads
// the inbox and every POST runs in its own goroutine, so POSTs may complete
// in any order.
type Relay struct {
	endpoint   string
	httpClient *http.Client
	inbox      chan models.Message
	logger     logger.Logger

	dispatcher sync.WaitGroup
	inFlight   sync.WaitGroup
	failed     atomic.Int64

	mu      sync.RWMutex
	started bool
	stopped bool
}

// New creates a Relay posting to cfg.Endpoint
func New(cfg config.RelayConfig, log logger.Logger) *Relay {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Relay{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		inbox:  make(chan models.Message, 16),
		logger: log.WithField("component", "relay"),
	}
}

// Start launches the dispatcher. Calling it twice has no effect.
func (r *Relay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started || r.stopped {
		return
	}
	r.started = true

	logger.LogComponentStart(r.logger, "relay", map[string]interface{}{
		"endpoint": r.endpoint,
		"timeout":  r.httpClient.Timeout,
	})

	r.dispatcher.Add(1)
	go r.dispatch()
}

// Stop closes the inbox and waits until every queued message has been
// posted and every response has been read
func (r *Relay) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.inbox)
	r.mu.Unlock()

	r.dispatcher.Wait()
	r.inFlight.Wait()

	logger.LogComponentStop(r.logger, "relay", "stopped")
}

// Submit queues msg for forwarding. It does not wait for the POST.
func (r *Relay) Submit(msg models.Message) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped {
		return ErrStopped
	}
	if !r.started {
		return ErrNotStarted
	}

	r.inbox <- msg
	r.logger.DebugWithFields("Message queued", map[string]interface{}{
		"type": string(msg.Type),
	})
	return nil
}

// Failed returns how many POSTs got no response from the collector. Read it
// after Stop for a final count.
func (r *Relay) Failed() int64 {
	return r.failed.Load()
}

// dispatch routes messages on their type tag until the inbox is closed
func (r *Relay) dispatch() {
	defer r.dispatcher.Done()

	for msg := range r.inbox {
		path, ok := PathFor(msg.Type)
		if !ok {
			r.logger.DebugWithFields("Ignoring message of unknown type", map[string]interface{}{
				"type": string(msg.Type),
			})
			continue
		}

		body, err := json.Marshal(msg.Data)
		if err != nil {
			r.failed.Add(1)
			r.logger.WithError(errs.New(errs.ErrorTypeEncoding, 0, err, "failed to encode %s record", msg.Type)).
				Error("Dropping message")
			continue
		}

		r.inFlight.Add(1)
		go r.post(BuildURL(r.endpoint, path), body)
	}
}

// post sends one record and logs the collector's reply. Failures are logged
// and dropped.
func (r *Relay) post(url string, body []byte) {
	defer r.inFlight.Done()

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		r.failed.Add(1)
		r.logger.WithError(err).ErrorWithFields("Failed to create request", map[string]interface{}{
			"url": url,
		})
		return
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.failed.Add(1)
		r.logger.WithError(errs.New(errs.ErrorTypeNetwork, 0, err, "network error: %v", err)).
			ErrorWithFields("Relay request failed", map[string]interface{}{
				"url":      url,
				"duration": time.Since(start),
			})
		return
	}
	defer resp.Body.Close()

	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		r.failed.Add(1)
		r.logger.WithError(err).WarnWithFields("Failed to read collector response", map[string]interface{}{
			"url":    url,
			"status": resp.StatusCode,
		})
		return
	}

	r.logger.InfoWithFields("Collector responded", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"body":     string(reply),
		"duration": time.Since(start),
	})
}
