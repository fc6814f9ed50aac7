// Package background contains work that runs outside the request/response cycle.
// This file, `mail_dispatcher.go`, runs a small pool of workers that deliver
// email so that request handlers never wait on an SMTP server.
package background

import (
	"context"
	"sync"
	"time"

	"github.com/user/redditclone-go/logging"
	"github.com/user/redditclone-go/mail"
)

const (
	// sendTimeout bounds a single delivery attempt.
	sendTimeout = 30 * time.Second
	// defaultQueueSize is the number of messages that may wait for a worker.
	defaultQueueSize = 100
)

// MailDispatcher delivers messages on a fixed pool of worker goroutines.
//
// Lifecycle: NewMailDispatcher -> Start -> Enqueue... -> Stop. Stop closes the
// queue, lets the workers drain what is already in it, and waits for them.
type MailDispatcher struct {
	sender  mail.Sender
	workers int
	queue   chan mail.Message
	log     logging.Logger

	// mu guards closed so that Enqueue never sends on a closed channel.
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewMailDispatcher creates a dispatcher with the given number of workers.
// A non-positive queueSize selects the default.
func NewMailDispatcher(sender mail.Sender, workers, queueSize int, log logging.Logger) *MailDispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &MailDispatcher{
		sender:  sender,
		workers: workers,
		queue:   make(chan mail.Message, queueSize),
		log:     log,
	}
}

// Start launches the workers.
func (d *MailDispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(workerID int) {
			defer d.wg.Done()
			for msg := range d.queue {
				d.deliver(workerID, msg)
			}
		}(i)
	}
	d.log.Info(context.Background(), "mail dispatcher started", "workers", d.workers)
}

func (d *MailDispatcher) deliver(workerID int, msg mail.Message) {
	// The request that queued the message has usually finished by now,
	// so delivery gets its own deadline instead of the request's context.
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := d.sender.Send(ctx, msg); err != nil {
		d.log.Error(ctx, "failed to deliver email", "worker", workerID, "to", msg.To, "subject", msg.Subject, "error", err)
		return
	}
	d.log.Debug(ctx, "email delivered", "worker", workerID, "to", msg.To)
}

// Enqueue hands msg to the workers without blocking. It reports false when the
// queue is full or the dispatcher has been stopped; the message is dropped.
func (d *MailDispatcher) Enqueue(ctx context.Context, msg mail.Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn(ctx, "mail dispatcher stopped, dropping email", "to", msg.To)
		return false
	}

	select {
	case d.queue <- msg:
		return true
	default:
		d.log.Warn(ctx, "mail queue is full, dropping email", "to", msg.To)
		return false
	}
}

// Stop closes the queue and waits until every queued message has been handled.
// It is safe to call more than once.
func (d *MailDispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Info(context.Background(), "mail dispatcher stopped")
}
