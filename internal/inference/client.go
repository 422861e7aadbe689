package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"
)

const dataURLPrefix = "data:image/jpeg;base64,"

type Config struct {
	BaseURL string
	Timeout time.Duration
	PingTTL time.Duration
}

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("inference returned status %d", e.Code)
	}
	return fmt.Sprintf("inference returned status %d: %s", e.Code, e.Message)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	pingTTL    time.Duration

	mu        sync.Mutex
	lastPing  time.Time
	reachable bool
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	pingTTL := cfg.PingTTL
	if pingTTL == 0 {
		pingTTL = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		pingTTL:    pingTTL,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type predictRequest struct {
	Image string `json:"image"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// DataURL wraps JPEG bytes the way the /predict endpoint expects them.
func DataURL(jpeg []byte) string {
	return dataURLPrefix + base64.StdEncoding.EncodeToString(jpeg)
}

// DecodeDataURL accepts either a full data URL or bare base64.
func DecodeDataURL(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		idx := strings.IndexByte(s, ',')
		if idx < 0 {
			return nil, fmt.Errorf("malformed data url")
		}
		s = s[idx+1:]
	}
	return base64.StdEncoding.DecodeString(s)
}

// Submit posts one JPEG frame to /predict.
func (c *Client) Submit(ctx context.Context, jpeg []byte) (*DetectionResult, error) {
	if len(jpeg) == 0 {
		return nil, ErrNoImage
	}

	body, err := json.Marshal(predictRequest{Image: DataURL(jpeg)})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doPredict(req)
}

// SubmitFile uploads an image file to /predict_file as multipart form data.
func (c *Client) SubmitFile(ctx context.Context, filename string, data []byte) (*DetectionResult, error) {
	if len(data) == 0 {
		return nil, ErrNoImage
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict_file", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.doPredict(req)
}

func (c *Client) doPredict(req *http.Request) (*DetectionResult, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.markReachable(false)
		}
		return nil, fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readStatusError(resp)
	}

	var result DetectionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	c.markReachable(true)
	return &result, nil
}

func readStatusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e errorResponse
	if err := json.Unmarshal(raw, &e); err == nil && e.Error != "" {
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
}

// Health queries /health and fails unless the predictor reports healthy.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var h HealthResponse
	if err := c.getJSON(ctx, "/health", &h); err != nil {
		c.markReachable(false)
		return nil, err
	}
	if !h.Healthy() {
		c.markReachable(false)
		return &h, fmt.Errorf("%w: predictor %s", ErrUnhealthy, h.PredictorStatus)
	}
	c.markReachable(true)
	return &h, nil
}

func (c *Client) Info(ctx context.Context) (*ServiceInfo, error) {
	var info ServiceInfo
	if err := c.getJSON(ctx, "/", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Ping reports reachability, reusing a recent answer when there is one.
func (c *Client) Ping(ctx context.Context) bool {
	c.mu.Lock()
	if !c.lastPing.IsZero() && time.Since(c.lastPing) < c.pingTTL {
		ok := c.reachable
		c.mu.Unlock()
		return ok
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := c.Health(ctx)
	return err == nil
}

func (c *Client) markReachable(ok bool) {
	c.mu.Lock()
	c.reachable = ok
	c.lastPing = time.Now()
	c.mu.Unlock()
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readStatusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
