package chatsync

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type senderFixture struct {
	store    *Store
	source   *fakeSource
	uploader *fakeUploader
	alerter  *fakeAlerter
	app      *fakeApp
	sender   *Sender
}

func newSenderFixture(perms Permissions, opener MediaOpener) *senderFixture {
	f := &senderFixture{
		store:    NewStore(),
		source:   newFakeSource("u1"),
		uploader: &fakeUploader{},
		alerter:  &fakeAlerter{},
		app:      &fakeApp{viewer: "u1", active: true},
	}
	if opener == nil {
		opener = fakeOpener{}
	}
	f.sender = NewSender("c1", SenderDeps{
		Store:       f.store,
		Source:      f.source,
		Uploader:    f.uploader,
		Opener:      opener,
		App:         f.app,
		Alerter:     f.alerter,
		Permissions: perms,
	})
	return f
}

func TestSendTextReplacesPendingWithConfirmed(t *testing.T) {
	f := newSenderFixture(fakePerms{granted: true}, nil)

	require.NoError(t, f.sender.SendText(context.Background(), "  hello  "))

	msgs := f.store.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, ConfirmedID("101"), msgs[0].ID)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, TypeText, msgs[0].Type())
	assert.Equal(t, "u1", msgs[0].AuthorID)
	for _, id := range f.store.IDs() {
		assert.False(t, id.IsPending())
	}
	assert.Empty(t, f.alerter.all())
}

func TestSendTextIgnoresBlank(t *testing.T) {
	f := newSenderFixture(fakePerms{granted: true}, nil)

	require.NoError(t, f.sender.SendText(context.Background(), "   \n\t"))
	assert.Equal(t, 0, f.store.Len())
	assert.Empty(t, f.source.drafts)
}

func TestSendRequiresSignedInViewer(t *testing.T) {
	f := newSenderFixture(fakePerms{granted: true}, nil)
	f.app.viewer = ""

	err := f.sender.SendText(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Equal(t, 0, f.store.Len())
	assert.Len(t, f.alerter.all(), 1)
}

func TestSendTextInsertFailureRollsBack(t *testing.T) {
	f := newSenderFixture(fakePerms{granted: true}, nil)
	f.store.LoadSnapshot([]*Message{confirmed("1", 0)})
	f.source.insertErr = errBoom

	err := f.sender.SendText(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)

	assert.Equal(t, []string{"1"}, idsOf(f.store.Messages()))
	alerts := f.alerter.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, "Error", alerts[0].title)
	assert.Contains(t, alerts[0].message, "send failed")
}

func TestSendImageUploadFailureRollsBack(t *testing.T) {
	f := newSenderFixture(fakePerms{granted: true}, nil)
	f.store.LoadSnapshot([]*Message{confirmed("1", 0), confirmed("2", 1)})
	f.uploader.err = errBoom

	err := f.sender.SendImage(context.Background(), MediaAsset{URI: "/tmp/a.jpg", Width: 800, Height: 600})
	require.Error(t, err)

	assert.Equal(t, 2, f.store.Len())
	for _, id := range f.store.IDs() {
		assert.False(t, id.IsPending())
	}
	assert.Empty(t, f.source.drafts)
	alerts := f.alerter.all()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].message, "upload failed")
}

func TestSendImageUploadsToChatBucket(t *testing.T) {
	f := newSenderFixture(fakePerms{granted: true}, nil)

	require.NoError(t, f.sender.SendImage(context.Background(), MediaAsset{URI: "/tmp/a.jpg", Width: 800, Height: 600}))

	require.Len(t, f.uploader.calls, 1)
	call := f.uploader.calls[0]
	assert.Equal(t, BucketImages, call.bucket)
	assert.Equal(t, "image/jpeg", call.contentType)
	assert.True(t, strings.HasPrefix(call.path, "c1/"))
	assert.True(t, strings.HasSuffix(call.path, ".jpg"))

	require.Len(t, f.source.drafts, 1)
	d := f.source.drafts[0]
	assert.Equal(t, "Image", d.Content)
	img, ok := d.Body.(ImageBody)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.test/"+BucketImages+"/"+call.path, img.URL)
	assert.Equal(t, 800, img.Width)
	assert.Equal(t, 600, img.Height)

	msgs := f.store.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, TypeImage, msgs[0].Type())
	assert.False(t, msgs[0].ID.IsPending())
}

func TestSendVoiceAndVideo(t *testing.T) {
	f := newSenderFixture(fakePerms{granted: true}, nil)
	ctx := context.Background()

	require.NoError(t, f.sender.SendVoice(ctx, Recording{URI: "/tmp/rec.m4a", Duration: 7}))
	require.NoError(t, f.sender.SendVideo(ctx, MediaAsset{URI: "/tmp/v.mp4", Duration: 12}))

	require.Len(t, f.uploader.calls, 2)
	assert.Equal(t, BucketVoice, f.uploader.calls[0].bucket)
	assert.Equal(t, "audio/m4a", f.uploader.calls[0].contentType)
	assert.True(t, strings.HasSuffix(f.uploader.calls[0].path, ".m4a"))
	assert.Equal(t, BucketVideo, f.uploader.calls[1].bucket)
	assert.Equal(t, "video/mp4", f.uploader.calls[1].contentType)

	require.Len(t, f.source.drafts, 2)
	assert.Equal(t, "Voice 7s", f.source.drafts[0].Content)
	assert.Equal(t, VoiceBody{URL: "https://cdn.test/" + BucketVoice + "/" + f.uploader.calls[0].path, Duration: 7}, f.source.drafts[0].Body)
	assert.Equal(t, "Video 12s", f.source.drafts[1].Content)

	assert.Equal(t, []string{"101", "102"}, idsOf(f.store.Messages()))
}

func TestSendMediaPermissionDenied(t *testing.T) {
	f := newSenderFixture(fakePerms{granted: false}, nil)

	err := f.sender.SendImage(context.Background(), MediaAsset{URI: "/tmp/a.jpg"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 0, f.store.Len())
	assert.Empty(t, f.uploader.calls)

	alerts := f.alerter.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, "Permission needed", alerts[0].title)
}

func TestSendMediaOpenFailureRollsBack(t *testing.T) {
	f := newSenderFixture(fakePerms{granted: true}, fakeOpener{err: errBoom})

	err := f.sender.SendVideo(context.Background(), MediaAsset{URI: "/missing.mp4", Duration: 3})
	require.Error(t, err)
	assert.Equal(t, 0, f.store.Len())
	assert.Empty(t, f.uploader.calls)
}

func TestSendSurvivesCanceledContext(t *testing.T) {
	f := newSenderFixture(fakePerms{granted: true}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, f.sender.SendText(ctx, "late"))
	assert.Equal(t, []string{"101"}, idsOf(f.store.Messages()))
}
