// Package swgcraft reads the current resource spawns of a galaxy from a
// community resource database.
package swgcraft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Spawn is one resource currently in spawn. Stats are keyed by stat code.
type Spawn struct {
	Name       string         `json:"name"`
	Class      string         `json:"class"`
	Stats      map[string]int `json:"stats"`
	Planets    []string       `json:"planets,omitempty"`
	SpawnedAt  time.Time      `json:"spawned_at"`
	ReportedBy string         `json:"reported_by,omitempty"`
}

type Client interface {
	CurrentSpawns(ctx context.Context, galaxy string) ([]Spawn, error)
	Galaxies(ctx context.Context) ([]string, error)
}

// StatusError is a non-2xx answer from the resource database.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("swgcraft %s: %d %s", e.Path, e.Status, e.Body)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

const (
	maxBody      = 8 << 20
	maxErrorBody = 256
)

type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retries    int
	backoff    time.Duration
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retries:    3,
		backoff:    2 * time.Second,
	}
}

// get fetches path, retrying throttled and server-side failures with a
// doubling backoff.
func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	wait := c.backoff
	for attempt := 0; ; attempt++ {
		body, err := c.doReq(ctx, path)
		var se *StatusError
		if err == nil || attempt >= c.retries || !errors.As(err, &se) || !se.Temporary() {
			return body, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func (c *HTTPClient) doReq(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "assay")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &StatusError{Path: path, Status: resp.StatusCode, Body: msg}
	}
	return body, nil
}

func (c *HTTPClient) CurrentSpawns(ctx context.Context, galaxy string) ([]Spawn, error) {
	data, err := c.get(ctx, "/api/v1/galaxies/"+url.PathEscape(galaxy)+"/spawns/current")
	if err != nil {
		return nil, err
	}
	var spawns []Spawn
	if err := json.Unmarshal(data, &spawns); err != nil {
		return nil, fmt.Errorf("decode spawns of %s: %w", galaxy, err)
	}
	return spawns, nil
}

func (c *HTTPClient) Galaxies(ctx context.Context) ([]string, error) {
	data, err := c.get(ctx, "/api/v1/galaxies")
	if err != nil {
		return nil, err
	}
	var galaxies []struct {
		Name   string `json:"name"`
		Active bool   `json:"active"`
	}
	if err := json.Unmarshal(data, &galaxies); err != nil {
		return nil, fmt.Errorf("decode galaxies: %w", err)
	}
	var out []string
	for _, g := range galaxies {
		if g.Active {
			out = append(out, g.Name)
		}
	}
	return out, nil
}
