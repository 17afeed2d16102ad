package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 1 << 20
	// MaxDownload es el tope de DoRaw (zip de adjuntos).
	MaxDownload = 64 << 20
)

// Client envuelve *http.Client con helpers JSON/multipart para hablar con la API.
type Client struct {
	HTTP    *http.Client
	BaseURL string // opcional; si se define, se aceptan paths relativos
	// Header se agrega a todos los requests (Authorization, X-Debug-User-ID...).
	Header http.Header
}

func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{HTTP: &http.Client{Timeout: timeout}, Header: http.Header{}}
}

func NewWithBaseURL(baseURL string, timeout time.Duration) (*Client, error) {
	c := New(timeout)
	if strings.TrimSpace(baseURL) == "" {
		return c, nil
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	c.BaseURL = strings.TrimRight(baseURL, "/")
	return c, nil
}

// HTTPError representa una respuesta no-2xx. Message/Errors vienen del cuerpo JSON de la API
// cuando existe.
type HTTPError struct {
	StatusCode int
	Body       string
	Message    string
	Errors     map[string]string
}

func (e *HTTPError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("http error: status=%d message=%s", e.StatusCode, e.Message)
	case e.Body != "":
		return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
}

// StatusCode devuelve el status de un *HTTPError en la cadena, o 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// DoJSON hace un request JSON. in nil => sin body; out nil => ignora body.
func (c *Client) DoJSON(ctx context.Context, method, pathOrURL string, headers map[string]string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: marshal json: %w", err)
		}
		body = bytes.NewReader(b)
	}

	h := map[string]string{"Accept": "application/json"}
	if in != nil {
		h["Content-Type"] = "application/json"
	}
	for k, v := range headers {
		h[k] = v
	}

	return c.do(ctx, method, pathOrURL, h, body, out)
}

// Part es un archivo de un request multipart.
type Part struct {
	Field    string
	FileName string
	Content  io.Reader
}

// DoMultipart envía fields (valores de texto, p.ej. "data" con JSON) y parts como
// multipart/form-data. La respuesta se decodifica como JSON en out.
func (c *Client) DoMultipart(ctx context.Context, method, pathOrURL string, headers map[string]string, fields map[string]string, parts []Part, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("httpclient: write field %s: %w", k, err)
		}
	}
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.Field, p.FileName)
		if err != nil {
			return fmt.Errorf("httpclient: create part %s: %w", p.FileName, err)
		}
		if _, err := io.Copy(fw, p.Content); err != nil {
			return fmt.Errorf("httpclient: copy part %s: %w", p.FileName, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("httpclient: close multipart: %w", err)
	}

	h := map[string]string{"Accept": "application/json", "Content-Type": mw.FormDataContentType()}
	for k, v := range headers {
		h[k] = v
	}
	return c.do(ctx, method, pathOrURL, h, &buf, out)
}

// DoRaw hace un GET y devuelve el cuerpo crudo (hasta MaxDownload) con su status.
func (c *Client) DoRaw(ctx context.Context, pathOrURL string, headers map[string]string) ([]byte, int, error) {
	resp, err := c.send(ctx, http.MethodGet, pathOrURL, headers, nil)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, resp.StatusCode, err
	}

	b, err := readAtMost(resp.Body, MaxDownload)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("httpclient: read body: %w", err)
	}
	return b, resp.StatusCode, nil
}

func (c *Client) do(ctx context.Context, method, pathOrURL string, headers map[string]string, body io.Reader, out any) error {
	resp, err := c.send(ctx, method, pathOrURL, headers, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	raw, err := readAtMost(resp.Body, maxErrorBody)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: unmarshal json: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, pathOrURL string, headers map[string]string, body io.Reader) (*http.Response, error) {
	if c == nil || c.HTTP == nil {
		return nil, errors.New("httpclient: nil client")
	}

	fullURL, err := c.resolveURL(pathOrURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: new request: %w", err)
	}

	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, v := range headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: do request: %w", err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := readAtMost(resp.Body, maxErrorBody)
	he := &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}

	var apiErr struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	if json.Unmarshal(raw, &apiErr) == nil {
		he.Message = apiErr.Message
		he.Errors = apiErr.Errors
	}
	return he
}

func (c *Client) resolveURL(pathOrURL string) (string, error) {
	pathOrURL = strings.TrimSpace(pathOrURL)
	if pathOrURL == "" {
		return "", errors.New("httpclient: empty url")
	}

	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL, nil
	}

	if strings.TrimSpace(c.BaseURL) == "" {
		return "", errors.New("httpclient: relative path requires BaseURL")
	}

	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.BaseURL + pathOrURL, nil
}

func readAtMost(r io.Reader, max int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, max))
}
