package s3store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	store, err := New(context.Background(), Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	})
	require.NoError(t, err)

	assert.Equal(t, "test-bucket", store.bucket)
	assert.Equal(t, "https://test-bucket.s3.us-east-1.amazonaws.com/a/b.jpg", store.URL("a/b.jpg"))
}

func TestStore_Put_MockServer(t *testing.T) {
	var (
		mu          sync.Mutex
		gotMethod   string
		gotPath     string
		gotBody     string
		gotType     string
		requestSeen bool
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotMethod, gotPath, gotBody, gotType = r.Method, r.URL.Path, string(body), r.Header.Get("Content-Type")
		requestSeen = true
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store, err := New(context.Background(), Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Prefix:          "panoramas",
		Endpoint:        server.URL,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	})
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "run-1.jpg", []byte("jpeg content"), "image/jpeg")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.True(t, requestSeen)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/test-bucket/panoramas/run-1.jpg", gotPath)
	assert.Contains(t, gotBody, "jpeg content")
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, server.URL+"/test-bucket/panoramas/run-1.jpg", url)
}

func TestStore_Put_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	store, err := New(context.Background(), Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	})
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "x.jpg", []byte("x"), "")
	assert.Error(t, err)
}
