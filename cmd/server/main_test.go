package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowLoop имитирует Runner.Run, которому нужно время на выход после отмены
func slowLoop(exited *atomic.Bool) func(context.Context) error {
	return func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(30 * time.Millisecond)
		exited.Store(true)
		return ctx.Err()
	}
}

func TestRunLoop(t *testing.T) {
	t.Run("ошибка сервера останавливает цикл", func(t *testing.T) {
		var exited atomic.Bool
		errCh := make(chan error, 1)
		errCh <- errors.New("порт занят")

		err := runLoop(context.Background(), slowLoop(&exited), errCh)
		assert.EqualError(t, err, "порт занят")
		assert.True(t, exited.Load(), "цикл должен завершиться до возврата")
	})

	t.Run("сигнал завершения", func(t *testing.T) {
		var exited atomic.Bool
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		err := runLoop(ctx, slowLoop(&exited), make(chan error))
		require.NoError(t, err)
		assert.True(t, exited.Load())
	})

	t.Run("цикл завершился сам", func(t *testing.T) {
		boom := errors.New("boom")
		err := runLoop(context.Background(), func(context.Context) error { return boom }, make(chan error))
		assert.ErrorIs(t, err, boom)
	})
}
