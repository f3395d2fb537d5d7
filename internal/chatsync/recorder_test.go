package chatsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecorderFixture(granted bool) (*Recorder, *fakeAudio, *fakeScheduler, *senderFixture) {
	f := newSenderFixture(fakePerms{granted: true}, nil)
	audio := &fakeAudio{}
	sched := newFakeScheduler()
	r := NewRecorder(audio, fakePerms{granted: granted}, sched, f.alerter, f.sender)
	return r, audio, sched, f
}

func TestRecorderStopSendsVoice(t *testing.T) {
	r, audio, sched, f := newRecorderFixture(true)
	ctx := context.Background()

	require.NoError(t, r.Start(ctx))
	assert.Equal(t, RecorderRecording, r.State())
	assert.True(t, audio.started)

	sched.fire()
	sched.fire()
	sched.fire()
	assert.Equal(t, 3, r.Duration())

	require.NoError(t, r.Stop(ctx))
	assert.Equal(t, RecorderIdle, r.State())
	assert.True(t, audio.stopped)
	assert.Equal(t, 0, sched.active())

	require.Len(t, f.source.drafts, 1)
	assert.Equal(t, "Voice 3s", f.source.drafts[0].Content)
	assert.Equal(t, BucketVoice, f.uploader.calls[0].bucket)
}

func TestRecorderDiscardsEmptyRecording(t *testing.T) {
	r, _, _, f := newRecorderFixture(true)
	ctx := context.Background()

	require.NoError(t, r.Start(ctx))
	assert.ErrorIs(t, r.Stop(ctx), ErrEmptyRecording)
	assert.Empty(t, f.source.drafts)
	assert.Equal(t, 0, f.store.Len())
}

func TestRecorderPermissionDenied(t *testing.T) {
	r, audio, _, f := newRecorderFixture(false)

	assert.ErrorIs(t, r.Start(context.Background()), ErrPermissionDenied)
	assert.False(t, audio.started)
	assert.Equal(t, RecorderIdle, r.State())

	alerts := f.alerter.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, "Permission needed", alerts[0].title)
}

func TestRecorderStateErrors(t *testing.T) {
	r, _, sched, _ := newRecorderFixture(true)
	ctx := context.Background()

	assert.ErrorIs(t, r.Stop(ctx), ErrNotRecording)

	require.NoError(t, r.Start(ctx))
	assert.ErrorIs(t, r.Start(ctx), ErrAlreadyRecording)

	r.Cancel(ctx)
	assert.Equal(t, RecorderIdle, r.State())
	assert.Equal(t, 1, sched.stopped)

	// 停止后的计时回调不再累加
	sched.fire()
	assert.Equal(t, 0, r.Duration())
}

func TestRecorderStartFailure(t *testing.T) {
	r, audio, sched, f := newRecorderFixture(true)
	audio.startErr = errBoom

	assert.ErrorIs(t, r.Start(context.Background()), errBoom)
	assert.Equal(t, RecorderIdle, r.State())
	assert.Equal(t, 0, sched.active())
	assert.Len(t, f.alerter.all(), 1)
}

// gatedPerms 在 Request 中等待放行
type gatedPerms struct {
	entered chan struct{}
	gate    chan struct{}
}

func (g gatedPerms) Request(context.Context, Permission) (bool, error) {
	g.entered <- struct{}{}
	<-g.gate
	return true, nil
}

func startBlocked(t *testing.T) (*Recorder, *fakeAudio, *fakeScheduler, gatedPerms, chan error) {
	t.Helper()
	f := newSenderFixture(fakePerms{granted: true}, nil)
	audio := &fakeAudio{}
	sched := newFakeScheduler()
	perms := gatedPerms{entered: make(chan struct{}, 1), gate: make(chan struct{})}
	r := NewRecorder(audio, perms, sched, f.alerter, f.sender)

	errc := make(chan error, 1)
	go func() { errc <- r.Start(context.Background()) }()
	select {
	case <-perms.entered:
	case <-time.After(time.Second):
		t.Fatal("permission request never started")
	}
	return r, audio, sched, perms, errc
}

func TestRecorderConcurrentStartRejected(t *testing.T) {
	r, audio, sched, perms, errc := startBlocked(t)

	assert.Equal(t, RecorderStarting, r.State())
	assert.ErrorIs(t, r.Start(context.Background()), ErrAlreadyRecording)

	close(perms.gate)
	require.NoError(t, <-errc)
	assert.Equal(t, RecorderRecording, r.State())
	assert.Equal(t, 1, audio.starts)
	assert.Equal(t, 1, sched.active())
}

func TestRecorderCancelWhileStarting(t *testing.T) {
	r, audio, sched, perms, errc := startBlocked(t)

	r.Cancel(context.Background())
	assert.Equal(t, RecorderIdle, r.State())

	close(perms.gate)
	assert.ErrorIs(t, <-errc, ErrNotRecording)
	assert.Equal(t, RecorderIdle, r.State())
	assert.True(t, audio.stopped)
	assert.Equal(t, 0, sched.active())
}
