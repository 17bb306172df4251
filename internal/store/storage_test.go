package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/list/group-files", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "g1", body["prefix"])
		_, _ = w.Write([]byte(`[{"name":"notes.pdf","size":1024}]`))
	}))
	defer srv.Close()

	objs, err := New(srv.URL, "anon").Storage("group-files").List(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "notes.pdf", objs[0].Name)
	assert.EqualValues(t, 1024, objs[0].Size)
}

func TestBucketUploadOverwrites(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/group-files/g1/notes.pdf", r.URL.Path)
		assert.Equal(t, "true", r.Header.Get("x-upsert"))
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		assert.Equal(t, "pdf-bytes", string(data))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b := New(srv.URL, "anon").Storage("group-files")
	err := b.Upload(context.Background(), "g1/notes.pdf", "application/pdf", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)
}

func TestBucketDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/group-files/g1/notes.pdf", r.URL.Path)
		_, _ = w.Write([]byte("pdf-bytes"))
	}))
	defer srv.Close()

	data, err := New(srv.URL, "anon").Storage("group-files").Download(context.Background(), "g1/notes.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(data))
}

func TestBucketPublicURL(t *testing.T) {
	b := New("https://proj.example.co", "anon").Storage("group-files")
	got := b.PublicURL("g1/notes.pdf")
	assert.Equal(t, "https://proj.example.co/storage/v1/object/public/group-files/g1/notes.pdf", got)
}

func TestBucketRemove(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/storage/v1/object/group-files", r.URL.Path)
		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"g1/notes.pdf", "g1/deck.pdf"}, body["prefixes"])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b := New(srv.URL, "anon").Storage("group-files")
	require.NoError(t, b.Remove(context.Background(), "g1/notes.pdf", "g1/deck.pdf"))
}
