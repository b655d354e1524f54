// Package portal holds the state behind the contract dashboard: the loaded
// collection, the derived view, the upload widget, delete confirmation and
// transient notifications. It talks to the gateway through API.
package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/contractportal/portal/internal/client"
)

var (
	ErrInvalidFileType = errors.New("please select a ZIP file")
	ErrUploadInFlight  = errors.New("an upload is already in progress")
	ErrNoFileSelected  = errors.New("no file selected")
	ErrNoPendingDelete = errors.New("no contract awaiting delete confirmation")
	ErrUnknownContract = errors.New("contract is not in the current list")
)

// API is the subset of the gateway client the dashboard needs.
type API interface {
	List(ctx context.Context) ([]client.Contract, error)
	Create(ctx context.Context, name, contentType string, body io.Reader) (client.Contract, error)
	Delete(ctx context.Context, id, blobURL string) error
}

// App owns the canonical contract list. Views are derived on demand and never
// stored.
type App struct {
	api   API
	notes *Notifier

	mu      sync.Mutex
	files   []client.Contract
	search  string
	sort    SortMode
	pending *client.Contract
	loading bool
}

// AppOption customizes an App.
type AppOption func(*App)

// WithNotifier replaces the default notifier.
func WithNotifier(n *Notifier) AppOption {
	return func(a *App) {
		if n != nil {
			a.notes = n
		}
	}
}

// NewApp returns an empty dashboard backed by api.
func NewApp(api API, opts ...AppOption) *App {
	a := &App{
		api:   api,
		notes: NewNotifier(),
		sort:  DefaultSort,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load replaces the collection with the gateway's list. On failure the
// previous collection is kept and an error notification is shown.
func (a *App) Load(ctx context.Context) error {
	a.mu.Lock()
	a.loading = true
	a.mu.Unlock()

	files, err := a.api.List(ctx)

	a.mu.Lock()
	a.loading = false
	if err == nil {
		a.files = files
	}
	a.mu.Unlock()

	if err != nil {
		a.notes.Notify(KindError, userMessage(err))
		return fmt.Errorf("load contracts: %w", err)
	}
	return nil
}

// Loading reports whether Load is in progress.
func (a *App) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// Files returns a copy of the canonical collection.
func (a *App) Files() []client.Contract {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]client.Contract, len(a.files))
	copy(out, a.files)
	return out
}

func (a *App) SetSearch(term string) {
	a.mu.Lock()
	a.search = term
	a.mu.Unlock()
}

func (a *App) Search() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.search
}

func (a *App) SetSort(mode SortMode) {
	a.mu.Lock()
	a.sort = mode
	a.mu.Unlock()
}

func (a *App) SortMode() SortMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sort
}

// Visible returns the collection filtered by the search text and ordered by
// the sort mode.
func (a *App) Visible() []client.Contract {
	a.mu.Lock()
	files, term, mode := a.files, a.search, a.sort
	a.mu.Unlock()
	return Visible(files, term, mode)
}

// Notifications returns the visible notifications, oldest first.
func (a *App) Notifications() []Notification {
	return a.notes.List()
}

// Dismiss closes a notification early.
func (a *App) Dismiss(id string) {
	a.notes.Dismiss(id)
}

// Close stops pending notification timers.
func (a *App) Close() {
	a.notes.Close()
}

// RequestDelete marks a contract for deletion. A second request replaces the
// first.
func (a *App) RequestDelete(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, f := range a.files {
		if f.ID == id {
			target := f
			a.pending = &target
			return nil
		}
	}
	return ErrUnknownContract
}

// PendingDelete returns the contract awaiting confirmation.
func (a *App) PendingDelete() (client.Contract, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return client.Contract{}, false
	}
	return *a.pending, true
}

// CancelDelete clears the pending delete without side effects.
func (a *App) CancelDelete() {
	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()
}

// ConfirmDelete deletes the pending contract. The pending slot is cleared
// whatever the result; the contract leaves the collection only on success.
func (a *App) ConfirmDelete(ctx context.Context) error {
	a.mu.Lock()
	if a.pending == nil {
		a.mu.Unlock()
		return ErrNoPendingDelete
	}
	target := *a.pending
	a.pending = nil
	a.mu.Unlock()

	if err := a.api.Delete(ctx, target.ID, target.URL); err != nil {
		a.notes.Notify(KindError, userMessage(err))
		return fmt.Errorf("delete %s: %w", target.ID, err)
	}

	a.mu.Lock()
	kept := make([]client.Contract, 0, len(a.files))
	for _, f := range a.files {
		if f.ID != target.ID {
			kept = append(kept, f)
		}
	}
	a.files = kept
	a.mu.Unlock()

	a.notes.Notify(KindSuccess, "File deleted successfully!")
	return nil
}

// NewUploadWidget returns an idle upload widget feeding this dashboard.
func (a *App) NewUploadWidget() *UploadWidget {
	return &UploadWidget{app: a}
}

func (a *App) upload(ctx context.Context, f FileInfo) (client.Contract, error) {
	body, err := f.Open()
	if err != nil {
		a.notes.Notify(KindError, fmt.Sprintf("Could not read %s", f.Name))
		return client.Contract{}, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer body.Close()

	stored, err := a.api.Create(ctx, f.Name, uploadContentType(f), body)
	if err != nil {
		a.notes.Notify(KindError, userMessage(err))
		return client.Contract{}, fmt.Errorf("upload %s: %w", f.Name, err)
	}

	a.mu.Lock()
	a.files = append([]client.Contract{stored}, a.files...)
	a.mu.Unlock()

	a.notes.Notify(KindSuccess, "File uploaded successfully!")
	return stored, nil
}

// userMessage prefers the gateway's own error text.
func userMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return client.DefaultErrorMessage
}
