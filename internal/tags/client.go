// =============================================================================
// Patron to CueBox Migrator - Tag Mapping Client
// =============================================================================
//
// The tag mapping service is consulted exactly once per run. It returns a
// JSON array of {name, mapped_name} pairs describing how raw source tags
// translate to the canonical CueBox vocabulary. The lookup is best-effort:
// any failure (network, HTTP status, malformed body) is reported to the
// caller, which degrades to an identity mapping.
//
// =============================================================================

package tags

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client fetches the tag mapping table from the mapping service.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a mapping service client. The timeout bounds the single
// request made per run; there is no retry policy beyond it.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// tagEntry is one mapping pair as returned by the service.
type tagEntry struct {
	Name       string `json:"name"`
	MappedName string `json:"mapped_name"`
}

// FetchMapping performs the one-shot lookup and returns the mapping table.
// Both sides of each pair are trimmed on ingest so lookups against trimmed
// source tags behave consistently.
func (c *Client) FetchMapping() (Mapping, error) {
	resp, err := c.httpClient.Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("tag mapping request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tag mapping response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("tag mapping service returned %d: %s", resp.StatusCode, string(body))
	}

	var entries []tagEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("malformed tag mapping response: %w", err)
	}

	mapping := make(Mapping, len(entries))
	for _, entry := range entries {
		mapping[strings.TrimSpace(entry.Name)] = strings.TrimSpace(entry.MappedName)
	}

	return mapping, nil
}
