package tags

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": "1", "name": " Board Member ", "mapped_name": "Board"},
			{"id": "2", "name": "Top Donor", "mapped_name": " Major Donor "}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	mapping, err := client.FetchMapping()
	require.NoError(t, err)

	// Both sides are trimmed on ingest.
	assert.Equal(t, Mapping{
		"Board Member": "Board",
		"Top Donor":    "Major Donor",
	}, mapping)
}

func TestFetchMappingServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.FetchMapping()
	assert.Error(t, err)
}

func TestFetchMappingMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.FetchMapping()
	assert.Error(t, err)
}

func TestFetchMappingUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 500*time.Millisecond)
	_, err := client.FetchMapping()
	assert.Error(t, err)
}
