// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package walrus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutNewlyCreated(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/v1/blobs", r.URL.Path)
		require.Equal(t, "5", r.URL.Query().Get("epochs"))
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"newlyCreated":{"blobObject":{"blobId":"blob-abc"}}}`))
	}))
	defer srv.Close()

	client := &Client{PublisherURL: srv.URL, HTTP: srv.Client(), Epochs: 5}
	blobID, err := client.Put(context.Background(), []byte("sealed envelope"))
	require.NoError(t, err)
	assert.Equal(t, "blob-abc", blobID)
	assert.Equal(t, []byte("sealed envelope"), gotBody)
}

func TestPutAlreadyCertified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"alreadyCertified":{"blobId":"blob-dup"}}`))
	}))
	defer srv.Close()

	client := &Client{PublisherURL: srv.URL, HTTP: srv.Client(), Epochs: 1}
	blobID, err := client.Put(context.Background(), []byte("same bytes again"))
	require.NoError(t, err)
	assert.Equal(t, "blob-dup", blobID)
}

func TestPutFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantErr: "status 500"},
		{name: "no blob id", status: http.StatusOK, body: `{}`, wantErr: "no blob id"},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantErr: "decoding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := &Client{PublisherURL: srv.URL, HTTP: srv.Client()}
			_, err := client.Put(context.Background(), []byte("data"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/blobs/blob-abc", r.URL.Path)
		w.Write([]byte("sealed envelope"))
	}))
	defer srv.Close()

	client := &Client{AggregatorURL: srv.URL, HTTP: srv.Client()}
	data, err := client.Get(context.Background(), "blob-abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("sealed envelope"), data)
}

func TestGetMissingBlob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := &Client{AggregatorURL: srv.URL, HTTP: srv.Client()}
	_, err := client.Get(context.Background(), "blob-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
