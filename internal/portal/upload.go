package portal

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/contractportal/portal/internal/client"
)

const zipContentType = "application/zip"

// UploadState is the widget's position in its state machine.
type UploadState int

const (
	StateIdle UploadState = iota
	StateSelected
	StateUploading
)

func (s UploadState) String() string {
	switch s {
	case StateSelected:
		return "selected"
	case StateUploading:
		return "uploading"
	default:
		return "idle"
	}
}

// FileInfo describes a candidate file. Open is called once per upload attempt.
type FileInfo struct {
	Name string
	Type string
	Size int64
	Open func() (io.ReadCloser, error)
}

// BytesFile wraps an in-memory payload.
func BytesFile(name, contentType string, data []byte) FileInfo {
	return FileInfo{
		Name: name,
		Type: contentType,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// IsZip accepts a declared zip content type or a .zip extension.
func IsZip(f FileInfo) bool {
	if strings.EqualFold(f.Type, zipContentType) {
		return true
	}
	return strings.EqualFold(filepath.Ext(f.Name), ".zip")
}

func uploadContentType(f FileInfo) string {
	if f.Type != "" {
		return f.Type
	}
	return zipContentType
}

// UploadWidget selects one zip file at a time and sends it to the gateway.
// A failed upload keeps the selection so it can be retried.
type UploadWidget struct {
	app *App

	mu       sync.Mutex
	state    UploadState
	selected *FileInfo
	message  string
}

// State returns the current state.
func (w *UploadWidget) State() UploadState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Selected returns the selected file, if any.
func (w *UploadWidget) Selected() (FileInfo, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == nil {
		return FileInfo{}, false
	}
	return *w.selected, true
}

// Message returns the last error shown inside the widget, or "".
func (w *UploadWidget) Message() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.message
}

// Select validates and selects f. Non-zip files are rejected without touching
// the current selection.
func (w *UploadWidget) Select(f FileInfo) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateUploading {
		return ErrUploadInFlight
	}
	if !IsZip(f) {
		w.message = "Please select a ZIP file"
		w.app.notes.Notify(KindError, "Please select a ZIP file")
		return ErrInvalidFileType
	}

	w.selected = &f
	w.state = StateSelected
	w.message = ""
	return nil
}

// Drop selects the first dropped file. An empty drop is ignored.
func (w *UploadWidget) Drop(files []FileInfo) error {
	if len(files) == 0 {
		return nil
	}
	return w.Select(files[0])
}

// Clear drops the selection unless an upload is running.
func (w *UploadWidget) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateUploading {
		return ErrUploadInFlight
	}
	w.selected = nil
	w.state = StateIdle
	w.message = ""
	return nil
}

// Upload sends the selected file. Only one upload runs at a time.
func (w *UploadWidget) Upload(ctx context.Context) (client.Contract, error) {
	w.mu.Lock()
	if w.state == StateUploading {
		w.mu.Unlock()
		return client.Contract{}, ErrUploadInFlight
	}
	if w.selected == nil {
		w.mu.Unlock()
		return client.Contract{}, ErrNoFileSelected
	}
	f := *w.selected
	w.state = StateUploading
	w.message = ""
	w.mu.Unlock()

	stored, err := w.app.upload(ctx, f)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.state = StateSelected
		w.message = userMessage(err)
		return client.Contract{}, err
	}
	w.selected = nil
	w.state = StateIdle
	return stored, nil
}
