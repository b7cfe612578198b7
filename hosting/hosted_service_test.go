package hosting_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/ioc/hosting"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestStartAllRunsUntilCancelled(t *testing.T) {
	rec := &recorder{}
	m := hosting.NewHostedServiceManager(nil)
	for _, name := range []string{"a", "b"} {
		m.Add(hosting.NewFunc(name, func(ctx context.Context) error {
			rec.add("start " + name)
			<-ctx.Done()
			return ctx.Err()
		}, func(context.Context) error {
			rec.add("stop " + name)
			return nil
		}))
	}
	assert.Equal(t, 2, m.Len())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := m.StartAll(ctx)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	m.Wait()

	select {
	case err := <-errCh:
		t.Fatalf("context cancellation must not be reported: %v", err)
	default:
	}

	require.NoError(t, m.StopAll(context.Background()))
	assert.ElementsMatch(t, []string{"start a", "start b", "stop a", "stop b"}, rec.snapshot())
}

func TestStartAllReportsFailures(t *testing.T) {
	boom := errors.New("boom")
	m := hosting.NewHostedServiceManager(nil)
	m.Add(hosting.NewFunc("broken", func(context.Context) error { return boom }, nil))
	m.Add(hosting.NewFunc("panics", func(context.Context) error { panic("oops") }, nil))

	errCh := m.StartAll(context.Background())
	m.Wait()

	var errs []error
	for len(errs) < 2 {
		select {
		case err := <-errCh:
			errs = append(errs, err)
		case <-time.After(time.Second):
			t.Fatal("expected two errors")
		}
	}

	joined := errors.Join(errs...)
	assert.ErrorIs(t, joined, boom)
	assert.Contains(t, joined.Error(), "broken")
	assert.Contains(t, joined.Error(), "panic: oops")
}

func TestStopAllJoinsErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	m := hosting.NewHostedServiceManager(nil)
	m.Add(
		hosting.NewFunc("one", nil, func(context.Context) error { return first }),
		hosting.NewFunc("two", nil, func(context.Context) error { return second }),
		hosting.NewFunc("three", nil, nil),
	)

	err := m.StopAll(context.Background())
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}
