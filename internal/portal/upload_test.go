package portal

import (
	"context"
	"testing"
	"time"

	"github.com/contractportal/portal/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectRejectsNonZipWithoutNetwork(t *testing.T) {
	api := &fakeAPI{}
	app, _ := newTestApp(api)
	w := app.NewUploadWidget()

	err := w.Select(BytesFile("notes.pdf", "application/pdf", []byte("pdf")))
	require.ErrorIs(t, err, ErrInvalidFileType)

	assert.Equal(t, StateIdle, w.State())
	_, ok := w.Selected()
	assert.False(t, ok)
	assert.NotEmpty(t, w.Message())
	assert.Zero(t, api.creates)

	notes := app.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, KindError, notes[0].Kind)
}

func TestSelectAcceptsZipByTypeOrExtension(t *testing.T) {
	app, _ := newTestApp(&fakeAPI{})
	w := app.NewUploadWidget()

	require.NoError(t, w.Select(BytesFile("bundle", "application/zip", []byte("a"))))
	require.NoError(t, w.Select(BytesFile("deal.ZIP", "", []byte("a"))))
	assert.Equal(t, StateSelected, w.State())

	f, ok := w.Selected()
	require.True(t, ok)
	assert.Equal(t, "deal.ZIP", f.Name)

	// rejected file leaves the previous selection alone
	require.ErrorIs(t, w.Select(BytesFile("x.txt", "text/plain", nil)), ErrInvalidFileType)
	f, _ = w.Selected()
	assert.Equal(t, "deal.ZIP", f.Name)
	assert.Equal(t, StateSelected, w.State())
}

func TestDropSelectsFirstFile(t *testing.T) {
	app, _ := newTestApp(&fakeAPI{})
	w := app.NewUploadWidget()

	require.NoError(t, w.Drop(nil))
	assert.Equal(t, StateIdle, w.State())

	require.NoError(t, w.Drop([]FileInfo{
		BytesFile("first.zip", "application/zip", []byte("1")),
		BytesFile("second.zip", "application/zip", []byte("2")),
	}))
	f, _ := w.Selected()
	assert.Equal(t, "first.zip", f.Name)
}

func TestUploadPrependsAndResets(t *testing.T) {
	api := &fakeAPI{files: sample()}
	app, _ := newTestApp(api)
	require.NoError(t, app.Load(context.Background()))
	w := app.NewUploadWidget()

	_, err := w.Upload(context.Background())
	require.ErrorIs(t, err, ErrNoFileSelected)

	require.NoError(t, w.Select(BytesFile("new.zip", "application/zip", []byte("payload"))))
	stored, err := w.Upload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "new.zip", stored.Name)
	assert.Equal(t, int64(7), stored.Size)
	assert.Equal(t, StateIdle, w.State())
	_, ok := w.Selected()
	assert.False(t, ok)

	files := app.Files()
	require.Len(t, files, 5)
	assert.Equal(t, stored.ID, files[0].ID)

	notes := app.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, KindSuccess, notes[0].Kind)
}

func TestFailedUploadKeepsSelection(t *testing.T) {
	api := &fakeAPI{createErr: &client.APIError{Status: 500, Message: "Failed to upload contract"}}
	app, _ := newTestApp(api)
	w := app.NewUploadWidget()

	require.NoError(t, w.Select(BytesFile("retry.zip", "application/zip", []byte("x"))))
	_, err := w.Upload(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateSelected, w.State())
	assert.Equal(t, "Failed to upload contract", w.Message())
	f, ok := w.Selected()
	require.True(t, ok)
	assert.Equal(t, "retry.zip", f.Name)
	assert.Empty(t, app.Files())

	api.createErr = nil
	_, err = w.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, api.creates)
	assert.Len(t, app.Files(), 1)
}

func TestUploadRejectsConcurrentAttempts(t *testing.T) {
	api := &fakeAPI{block: make(chan struct{})}
	app, _ := newTestApp(api)
	w := app.NewUploadWidget()
	require.NoError(t, w.Select(BytesFile("slow.zip", "application/zip", []byte("x"))))

	done := make(chan error, 1)
	go func() {
		_, err := w.Upload(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return w.State() == StateUploading }, time.Second, 5*time.Millisecond)

	_, err := w.Upload(context.Background())
	assert.ErrorIs(t, err, ErrUploadInFlight)
	assert.ErrorIs(t, w.Select(BytesFile("other.zip", "application/zip", nil)), ErrUploadInFlight)
	assert.ErrorIs(t, w.Clear(), ErrUploadInFlight)

	close(api.block)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, w.State())
	assert.Equal(t, 1, api.creates)
}
