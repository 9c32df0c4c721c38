package leaderboard

import (
	"context"
	"errors"
	"testing"

	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/testutils"
	"github.com/stretchr/testify/assert"
)

type invalidator struct {
	calls int
	err   error
}

func (i *invalidator) Invalidate(context.Context) error {
	i.calls++
	return i.err
}

func TestHandleOrderCompleted(t *testing.T) {
	board := &invalidator{}
	h := HandleOrderCompleted(board, testutils.Discard)

	assert.NoError(t, h(context.Background(), events.OrderEvent{EventType: events.EventTypeOrderCompleted}))
	assert.Equal(t, 1, board.calls)

	board.err = errors.New("redis down")
	assert.NoError(t, h(context.Background(), events.OrderEvent{EventType: events.EventTypeOrderCompleted}))
	assert.Equal(t, 2, board.calls)
}
