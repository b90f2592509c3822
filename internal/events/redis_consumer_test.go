package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingHandler struct {
	mu         sync.Mutex
	ctx        context.Context
	responseID string
	event      domain.ResponseEventType
	handled    chan struct{}
}

func newCapturingHandler() *capturingHandler {
	return &capturingHandler{handled: make(chan struct{}, 1)}
}

func (h *capturingHandler) OnResponseEvent(ctx context.Context, responseID string, event domain.ResponseEventType) error {
	h.mu.Lock()
	h.ctx = ctx
	h.responseID = responseID
	h.event = event
	h.mu.Unlock()

	h.handled <- struct{}{}

	return nil
}

func TestHandleMessage_DispatchOutlivesConsumerShutdown(t *testing.T) {
	handler := newCapturingHandler()

	consumer := NewRedisConsumer(RedisConsumerDependencies{
		Handler: handler,
	})

	consumer.handleMessage(`{"response_id":"resp-1","event":"response.completed"}`)

	select {
	case <-handler.handled:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()

	assert.Equal(t, "resp-1", handler.responseID)
	assert.Equal(t, domain.ResponseEvent_Completed, handler.event)

	// The dispatch context is detached: it has no cancellation hooked to the
	// consumer, so shutting the consumer down cannot interrupt the send.
	require.NotNil(t, handler.ctx)
	assert.Nil(t, handler.ctx.Done())
}

func TestHandleMessage_DropsMalformedPayload(t *testing.T) {
	handler := newCapturingHandler()

	consumer := NewRedisConsumer(RedisConsumerDependencies{
		Handler: handler,
	})

	consumer.handleMessage(`{"response_id":`)
	consumer.handleMessage(`{"response_id":"resp-1","event":"response.deleted"}`)

	select {
	case <-handler.handled:
		t.Fatal("handler should not run for dropped messages")
	case <-time.After(100 * time.Millisecond):
	}
}
