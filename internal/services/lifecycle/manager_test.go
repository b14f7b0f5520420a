package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ShutdownRunsInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	for _, name := range []string{"db", "cache", "http"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http", "cache", "db"}, order)
}

func TestManager_ShutdownJoinsErrorsAndContinues(t *testing.T) {
	m := New(time.Second, nil)
	errA := errors.New("a failed")
	ran := false
	m.Register("last", func(context.Context) error { ran = true; return nil })
	m.Register("first", func(context.Context) error { return errA })

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, errA)
	assert.True(t, ran)
}

func TestManager_ShutdownOnlyOnce(t *testing.T) {
	m := New(time.Second, nil)
	calls := 0
	m.Register("c", func(context.Context) error { calls++; return nil })

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))
	m.Register("late", func(context.Context) error { calls++; return nil })
	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestManager_ShutdownAppliesTimeout(t *testing.T) {
	m := New(20*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager_WaitForSignalFollowsParent(t *testing.T) {
	m := New(time.Second, nil)
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := m.WaitForSignal(parent)
	defer stop()

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with parent")
	}
}
