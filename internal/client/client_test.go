package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/contractportal/portal/internal/contract"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service := contract.NewService(contract.NewMemoryRepository(), contract.NewMemoryBlobStore("memory://contracts"))
	r := gin.New()
	contract.RegisterRoutes(r.Group("/api"), service)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", WithHTTPClient(srv.Client()))
}

func TestCreateListDeleteRoundTrip(t *testing.T) {
	c := newGateway(t)
	ctx := context.Background()

	created, err := c.Create(ctx, "contract.zip", "application/zip", strings.NewReader("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, "contract.zip", created.Name)
	assert.Equal(t, int64(10), created.Size)
	assert.WithinDuration(t, time.Now(), created.UploadedAt, time.Minute)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.True(t, list[0].UploadedAt.Equal(created.UploadedAt))

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.URL, got.URL)

	var buf bytes.Buffer
	n, err := c.Download(ctx, created.ID, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, "0123456789", buf.String())

	require.NoError(t, c.Delete(ctx, created.ID, created.URL))

	list, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateEncodesFilename(t *testing.T) {
	c := newGateway(t)

	created, err := c.Create(context.Background(), "deal & terms #2.zip", "", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "deal & terms #2.zip", created.Name)
}

func TestServerMessageIsSurfaced(t *testing.T) {
	c := newGateway(t)

	err := c.Delete(context.Background(), "", "")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Missing required field", apiErr.Error())
	assert.Equal(t, contract.ErrMissingID.Error(), apiErr.Details)
}

func TestFallbackMessageWhenBodyUnparsable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).List(context.Background())
	require.Error(t, err)
	assert.Equal(t, DefaultErrorMessage, err.Error())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 1, 2, 3, 4, 5, 600000000, time.UTC)

	for _, in := range []string{
		"2025-01-02T03:04:05.6Z",
		"2025-01-02T03:04:05.600+00:00",
		"2025-01-02T03:04:05.6",
		"2025-01-02 03:04:05.6",
	} {
		got, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}
