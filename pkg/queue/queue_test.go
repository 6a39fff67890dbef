package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prxmesh/prxcore/pkg/queue"
)

func TestPushBackPopFrontOrder(t *testing.T) {
	var q queue.Queue[int]
	q.PushBack(1)
	q.PushBack(2)
	q.PushBack(3)
	require.Equal(t, 3, q.Len())

	v, ok := q.PopFront()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = q.PopFront()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, q.Len())
}

func TestRemoveFromMiddle(t *testing.T) {
	var q queue.Queue[string]
	q.PushBack("a")
	mid := q.PushBack("b")
	q.PushBack("c")

	q.Remove(mid)
	require.Equal(t, 2, q.Len())

	var seen []string
	q.Each(func(v string) bool {
		seen = append(seen, v)
		return true
	})
	assert.Equal(t, []string{"a", "c"}, seen)
}

func TestRemoveIsIdempotent(t *testing.T) {
	var q queue.Queue[int]
	n := q.PushBack(42)
	q.Remove(n)
	q.Remove(n) // no panic, no double-decrement
	assert.Equal(t, 0, q.Len())
}

func TestPopOnEmptyQueue(t *testing.T) {
	var q queue.Queue[int]
	_, ok := q.PopFront()
	assert.False(t, ok)
	_, ok = q.PopBack()
	assert.False(t, ok)
}

func TestPushFrontAndBackInterleave(t *testing.T) {
	var q queue.Queue[int]
	q.PushBack(2)
	q.PushFront(1)
	q.PushBack(3)

	var seen []int
	q.Each(func(v int) bool {
		seen = append(seen, v)
		return true
	})
	assert.Equal(t, []int{1, 2, 3}, seen)
}
