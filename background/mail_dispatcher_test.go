package background

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/redditclone-go/logging"
	"github.com/user/redditclone-go/mail"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []mail.Message
	fail  bool
	block chan struct{}
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	if s.fail {
		return errors.New("smtp down")
	}
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestDispatcher_DeliversEverythingBeforeStopReturns(t *testing.T) {
	sender := &recordingSender{}
	d := NewMailDispatcher(sender, 3, 20, logging.Nop())
	d.Start()

	for i := 0; i < 20; i++ {
		assert.True(t, d.Enqueue(context.Background(), mail.Message{To: "x@example.com"}))
	}
	d.Stop()

	assert.Equal(t, 20, sender.count())
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	d := NewMailDispatcher(sender, 1, 1, logging.Nop())
	// Workers are not started, so the queue holds exactly one message.
	assert.True(t, d.Enqueue(context.Background(), mail.Message{To: "a@example.com"}))
	assert.False(t, d.Enqueue(context.Background(), mail.Message{To: "b@example.com"}))

	close(sender.block)
	d.Start()
	d.Stop()
	assert.Equal(t, 1, sender.count())
}

func TestDispatcher_EnqueueAfterStop(t *testing.T) {
	d := NewMailDispatcher(&recordingSender{}, 1, 1, logging.Nop())
	d.Start()
	d.Stop()
	d.Stop()

	assert.False(t, d.Enqueue(context.Background(), mail.Message{To: "late@example.com"}))
}

func TestDispatcher_SendErrorsDoNotStopWorkers(t *testing.T) {
	sender := &recordingSender{fail: true}
	d := NewMailDispatcher(sender, 1, 5, logging.Nop())
	d.Start()
	for i := 0; i < 3; i++ {
		d.Enqueue(context.Background(), mail.Message{To: "x@example.com"})
	}
	d.Stop()
	assert.Equal(t, 3, sender.count())
}
