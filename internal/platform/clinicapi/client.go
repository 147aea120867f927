package clinicapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUpstream wraps every failure talking to the clinic API: transport errors,
// non-2xx replies and payloads that do not decode.
var ErrUpstream = errors.New("clinic api request failed")

const maxResponseBytes = 16 << 20

type Client struct {
	baseURL string
	http    *http.Client
	loc     *time.Location
}

func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// InLocation returns a copy of c that reads zone-less order times as wall
// clock time in loc.
func (c *Client) InLocation(loc *time.Location) *Client {
	out := *c
	out.loc = loc
	return &out
}

func (c *Client) ListEmployees(ctx context.Context) ([]Employee, error) {
	var raw []json.RawMessage
	if err := c.getJSON(ctx, "/employee", &raw); err != nil {
		return nil, err
	}
	return decodeRecords[Employee]("/employee", raw), nil
}

func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var raw []json.RawMessage
	if err := c.getJSON(ctx, "/order", &raw); err != nil {
		return nil, err
	}
	out := decodeRecords[Order]("/order", raw)
	for i := range out {
		out[i].Date = out[i].Date.Anchor(c.loc)
	}
	return out, nil
}

// decodeRecords decodes each element on its own. Elements that do not decode
// are logged and skipped so one bad record does not hide the rest.
func decodeRecords[T any](path string, raw []json.RawMessage) []T {
	out := make([]T, 0, len(raw))
	for i, item := range raw {
		var record T
		if err := json.Unmarshal(item, &record); err != nil {
			slog.Warn("skipping malformed clinic api record", "path", path, "index", i, "err", err)
			continue
		}
		out = append(out, record)
	}
	return out
}

// ImageURL returns the public URL of an employee avatar, or "" when name is empty.
func (c *Client) ImageURL(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	return c.baseURL + "/images/" + url.PathEscape(name)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request %s: %v", ErrUpstream, path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: GET %s: status %d", ErrUpstream, path, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUpstream, path, err)
	}
	return nil
}
