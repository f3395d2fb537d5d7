package chatsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newScroll() (*ScrollReadCoordinator, *fakeSource, *fakeView, *fakeClock) {
	source := newFakeSource("u1")
	view := &fakeView{}
	clock := &fakeClock{}
	return NewScrollReadCoordinator("c1", source, view, clock), source, view, clock
}

func TestScrollToEndWaitsForLayout(t *testing.T) {
	s, _, view, clock := newScroll()

	s.RequestScrollToEnd()
	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, int32(0), view.count())

	clock.Advance(ScrollSettleDelay)
	assert.Equal(t, int32(1), view.count())
}

func TestScrollSuppressedWhileUserScrolls(t *testing.T) {
	s, _, view, clock := newScroll()

	s.DragBegin()
	s.RequestScrollToEnd()
	clock.Advance(ScrollSettleDelay)
	assert.Equal(t, int32(0), view.count())
	assert.True(t, s.UserScrolling())

	s.DragEnd()
	clock.Advance(time.Second)
	assert.True(t, s.UserScrolling())

	clock.Advance(GestureResetDelay)
	assert.False(t, s.UserScrolling())

	s.RequestScrollToEnd()
	clock.Advance(ScrollSettleDelay)
	assert.Equal(t, int32(1), view.count())
}

func TestGestureRestartCancelsPendingReset(t *testing.T) {
	s, _, _, clock := newScroll()

	s.DragBegin()
	s.DragEnd()
	clock.Advance(time.Second)
	s.MomentumBegin()
	clock.Advance(2 * GestureResetDelay)
	assert.True(t, s.UserScrolling())

	s.MomentumEnd()
	clock.Advance(GestureResetDelay)
	assert.False(t, s.UserScrolling())
}

func TestOnScrollBottomThreshold(t *testing.T) {
	s, _, view, clock := newScroll()

	s.OnScroll(400, 500, 1000)
	assert.False(t, s.ShouldAutoScroll())
	s.RequestScrollToEnd()
	clock.Advance(ScrollSettleDelay)
	assert.Equal(t, int32(0), view.count())

	s.OnScroll(460, 500, 1000)
	assert.True(t, s.ShouldAutoScroll())
}

func TestStoreChangeMarksReadOnCountChange(t *testing.T) {
	s, source, view, clock := newScroll()

	s.OnStoreChange(Change{Kind: ChangeReset, Len: 3, PrevLen: 3})
	clock.Advance(ScrollSettleDelay)
	assert.Equal(t, int32(1), view.count())
	assert.Never(t, func() bool { return source.reads() > 0 }, 50*time.Millisecond, 10*time.Millisecond)

	s.OnStoreChange(Change{Kind: ChangeAppended, Len: 4, PrevLen: 3})
	assert.Eventually(t, func() bool { return source.reads() == 1 }, time.Second, 5*time.Millisecond)

	s.OnStoreChange(Change{Kind: ChangeRemoved, Len: 3, PrevLen: 4})
	assert.Eventually(t, func() bool { return source.reads() == 2 }, time.Second, 5*time.Millisecond)
	clock.Advance(ScrollSettleDelay)
	assert.Equal(t, int32(2), view.count())
}
