package httpx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsInOrder(t *testing.T) {
	l := NewLoop(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	got := make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		require.True(t, l.Post(func() { got <- i }))
	}
	for want := 0; want < 3; want++ {
		select {
		case v := <-got:
			assert.Equal(t, want, v)
		case <-time.After(2 * time.Second):
			t.Fatal("task did not run")
		}
	}
}

func TestLoop_StopRejectsPosts(t *testing.T) {
	l := NewLoop(1)
	l.Stop()
	l.Stop()
	assert.False(t, l.Post(func() {}))
	assert.NoError(t, l.Run(context.Background()))
	select {
	case <-l.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestLoop_ContextCancel(t *testing.T) {
	l := NewLoop(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Run(ctx), context.Canceled)
	assert.False(t, l.Post(func() {}))
}
