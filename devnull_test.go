package coroflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDevNull_DiscardsInputAndFinishesOnThrow(t *testing.T) {
	cq := NewCallQueue()
	ctx := context.Background()
	sink := DevNull(ctx, cq)

	sink.Send("a")
	sink.Send("b")
	boom := errors.New("upstream done")
	sink.Throw(boom)

	_, err := Run(sink, cq, WithPollInterval(5*time.Millisecond))
	require.Error(t, err)
	require.True(t, errors.Is(err, boom))
}

func TestDevNull_FinishesOnContextCancel(t *testing.T) {
	cq := NewCallQueue()
	ctx, cancel := context.WithCancel(context.Background())
	sink := DevNull(ctx, cq)

	cancel()

	_, err := Run(sink, cq, WithPollInterval(5*time.Millisecond))
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}
