package scanning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// Client talks to the scanner API over HTTP. One Scan call performs
// exactly one request: no retries, and no deadline beyond whatever the
// caller's context and the transport defaults impose.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client for the scanner API at baseURL. The URL
// includes the version prefix, e.g. http://localhost:8000/api/v1.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("scanner API base URL is required")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Scan submits one document image to POST {base}/{route}/scan as a
// multipart body with a single part named "file". A non-2xx response
// becomes a RemoteRejection carrying the server's detail message when
// one is present; failures to reach the API or to decode its response
// become a TransportFailure.
func (c *Client) Scan(ctx context.Context, route Route, filename string, data []byte, contentType string) (*ScanResult, error) {
	data, filename, contentType, err := prepareUpload(data, filename, contentType)
	if err != nil {
		return nil, fmt.Errorf("preparing upload: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	url := fmt.Sprintf("%s/%s/scan", c.baseURL, route)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportFailure{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, rejectionFromResponse(resp)
	}

	var result ScanResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TransportFailure{Err: fmt.Errorf("decoding scan response: %w", err)}
	}
	return &result, nil
}

// rejectionFromResponse reads the error body, which carries a detail
// string on all of the backend's failure paths
func rejectionFromResponse(resp *http.Response) *RemoteRejection {
	rejection := &RemoteRejection{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return rejection
	}
	var apiErr struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil {
		rejection.Detail = apiErr.Detail
	}
	return rejection
}

// Health checks GET {base}/health
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportFailure{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteRejection{StatusCode: resp.StatusCode}
	}

	var health Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, &TransportFailure{Err: fmt.Errorf("decoding health response: %w", err)}
	}
	return &health, nil
}

// Close closes the client (no-op for the HTTP transport)
func (c *Client) Close() error {
	return nil
}
