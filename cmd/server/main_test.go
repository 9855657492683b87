package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAwaitStop(t *testing.T) {
	t.Run("signal", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, awaitStop(ctx, make(chan error), zap.NewNop()))
	})

	t.Run("listener failure", func(t *testing.T) {
		errc := make(chan error, 1)
		errc <- errors.New("http: listen tcp :8080: address already in use")
		err := awaitStop(context.Background(), errc, zap.NewNop())
		assert.EqualError(t, err, "http: listen tcp :8080: address already in use")
	})
}
