package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"susu-app-go/internal/config"
	"susu-app-go/internal/domain/accounts"
	"susu-app-go/internal/domain/notification"
	"susu-app-go/pkg/logger"
)

type ContactLookup interface {
	Contact(ctx context.Context, userID string) (accounts.Contact, error)
}

// Dispatcher delivers notifications in the background. Notify never blocks:
// when the queue is full the message is dropped and Notify returns false.
type Dispatcher struct {
	queue       chan notification.Message
	contacts    ContactLookup
	providers   []Provider
	renderer    *Renderer
	log         logger.Logger
	workers     int
	maxAttempts int
	backoff     time.Duration
	sendTimeout time.Duration

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func NewDispatcher(cfg config.NotifyConfig, contacts ContactLookup, providers []Provider, log logger.Logger) (*Dispatcher, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		queue:       make(chan notification.Message, cfg.QueueSize),
		contacts:    contacts,
		providers:   providers,
		renderer:    renderer,
		log:         log.With("component", "notify"),
		workers:     cfg.Workers,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.RetryBackoff,
		sendTimeout: cfg.SendTimeout,
	}, nil
}

func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	if len(d.providers) == 0 {
		d.log.Warn("notify: no email providers configured, notifications will be dropped")
	}
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
}

func (d *Dispatcher) Notify(ctx context.Context, msg notification.Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		d.log.Warn("notify: queue full", "user_id", msg.UserID, "template", msg.Template)
		return false
	}
}

// Close stops accepting messages and waits for queued ones to drain until
// ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notify: drain interrupted: %w", ctx.Err())
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for msg := range d.queue {
		if err := d.deliver(context.Background(), msg); err != nil {
			d.log.Error("notify: delivery failed", "err", err, "user_id", msg.UserID, "template", msg.Template)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg notification.Message) error {
	if len(d.providers) == 0 {
		return ErrNoProviders
	}

	lookupCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	contact, err := d.contacts.Contact(lookupCtx, msg.UserID)
	cancel()
	if err != nil {
		return fmt.Errorf("resolve contact: %w", err)
	}
	if contact.Email == "" {
		return errors.New("contact has no email")
	}

	subject, text, html, err := d.renderer.Render(msg.Template, contact.Name, msg.Data)
	if err != nil {
		return err
	}
	email := Email{To: contact.Email, ToName: contact.Name, Subject: subject, HTML: html, Text: text}

	var lastErr error
	for attempt := 0; attempt < d.maxAttempts; attempt++ {
		if attempt > 0 && d.backoff > 0 {
			time.Sleep(d.backoff * time.Duration(attempt))
		}
		for _, provider := range d.providers {
			id, err := d.send(ctx, provider, email)
			if err == nil {
				d.log.Debug("notify: email sent", "provider", provider.Name(), "message_id", id, "user_id", msg.UserID, "template", msg.Template)
				return nil
			}
			d.log.Warn("notify: provider failed", "provider", provider.Name(), "attempt", attempt+1, "err", err)
			lastErr = err
		}
	}
	return fmt.Errorf("all providers failed after %d attempts: %w", d.maxAttempts, lastErr)
}

func (d *Dispatcher) send(ctx context.Context, provider Provider, email Email) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	return provider.Send(ctx, email)
}
