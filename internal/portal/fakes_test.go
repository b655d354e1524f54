package portal

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/contractportal/portal/internal/client"
)

type fakeAPI struct {
	mu        sync.Mutex
	files     []client.Contract
	listErr   error
	createErr error
	deleteErr error
	creates   int
	deletes   []string
	seq       int
	block     chan struct{}
}

func (f *fakeAPI) List(ctx context.Context) ([]client.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]client.Contract, len(f.files))
	copy(out, f.files)
	return out, nil
}

func (f *fakeAPI) Create(ctx context.Context, name, contentType string, body io.Reader) (client.Contract, error) {
	if f.block != nil {
		<-f.block
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return client.Contract{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return client.Contract{}, f.createErr
	}
	f.seq++
	c := client.Contract{
		ID:         "new-" + string(rune('0'+f.seq)),
		Name:       name,
		Size:       int64(len(data)),
		URL:        "http://blobs/" + name,
		UploadedAt: time.Date(2025, 1, 1, 0, 0, f.seq, 0, time.UTC),
	}
	f.files = append([]client.Contract{c}, f.files...)
	return c, nil
}

func (f *fakeAPI) Delete(ctx context.Context, id, blobURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return nil
}

var errOffline = errors.New("connection refused")

// manualClock collects scheduled callbacks and fires them on demand.
type manualClock struct {
	mu    sync.Mutex
	funcs []*scheduled
}

type scheduled struct {
	d         time.Duration
	f         func()
	cancelled bool
}

func (m *manualClock) schedule(d time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &scheduled{d: d, f: f}
	m.funcs = append(m.funcs, s)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		was := !s.cancelled
		s.cancelled = true
		return was
	}
}

func (m *manualClock) fireAll() {
	m.mu.Lock()
	pending := m.funcs
	m.funcs = nil
	m.mu.Unlock()
	for _, s := range pending {
		if !s.cancelled {
			s.f()
		}
	}
}

func contract(id, name string, at time.Time) client.Contract {
	return client.Contract{ID: id, Name: name, Size: 10, URL: "http://blobs/" + id, UploadedAt: at}
}
