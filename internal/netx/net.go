// Package netx holds the small JSON-over-HTTP helper used by both the
// ZeroBrix upstream client and the terminal client's server API.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxBodySize = 1 << 20

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	StatusCode int
	Status     string
	// Message is the "error" field of a JSON body, when there is one.
	Message string
	Body    []byte
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed: %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("request failed: %s; body: %s", e.Status, string(e.Body))
}

// StatusCode extracts the HTTP status of a *StatusError in err's chain,
// or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// DoJSON sends in (when non-nil) as a JSON body and decodes a 2xx response
// into out (when non-nil). Non-2xx responses yield a *StatusError carrying
// the body; the status code is returned either way.
func DoJSON(ctx context.Context, client *http.Client, method, url string, header http.Header, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: raw}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil {
			se.Message = e.Error
		}
		return resp.StatusCode, se
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// DecodeErrorBody unmarshals the body of a *StatusError into out. It reports
// false when err carries no JSON body.
func DecodeErrorBody(err error, out any) bool {
	var se *StatusError
	if !errors.As(err, &se) || len(se.Body) == 0 {
		return false
	}
	return json.Unmarshal(se.Body, out) == nil
}
