package srv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingService struct {
	mu       sync.Mutex
	order    *[]string
	name     string
	startErr error
	stop     chan struct{}
}

func newBlocking(name string, order *[]string) *blockingService {
	return &blockingService{name: name, order: order, stop: make(chan struct{})}
}

func (b *blockingService) Start(ctx context.Context) error {
	if b.startErr != nil {
		return b.startErr
	}
	select {
	case <-ctx.Done():
	case <-b.stop:
	}
	return nil
}

func (b *blockingService) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	*b.order = append(*b.order, b.name)
	b.mu.Unlock()
	return nil
}

func TestRun_ShutsDownInReverseOrder(t *testing.T) {
	var order []string
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, []Service{newBlocking("a", &order), newBlocking("b", &order)}, time.Second)
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestRun_StartFailureStopsEverything(t *testing.T) {
	var order []string
	failing := newBlocking("bad", &order)
	failing.startErr = errors.New("boom")

	err := Run(context.Background(), []Service{newBlocking("ok", &order), failing}, time.Second)
	require.Error(t, err)
	assert.ErrorContains(t, err, "boom")
	assert.Len(t, order, 2)
}

func TestNewCleanup(t *testing.T) {
	called := false
	svc := NewCleanup(func() error {
		called = true
		return nil
	})
	require.NoError(t, svc.Start(context.Background()))
	assert.False(t, called)
	require.NoError(t, svc.Shutdown(context.Background()))
	assert.True(t, called)
}
