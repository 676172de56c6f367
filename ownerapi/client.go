package ownerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"owner-console/editor"
	"owner-console/mapping"

	"go.uber.org/zap"
)

const (
	addProductPath = "/api/owner/add-product"
	productPath    = "/api/owner/product/"
	stockistPath   = "/api/stockists"
)

// PreviewOpener yields the bytes of a pending upload.
type PreviewOpener interface {
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
}

// Client talks to the owner REST API on behalf of an authenticated owner.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Log     *zap.Logger
}

func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Log:     log,
	}
}

type tokenKey struct{}

// WithToken attaches the owner's bearer token to ctx for downstream calls.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

type productEnvelope struct {
	Product json.RawMessage `json:"product"`
}

// CreateProduct submits a new product as multipart form data.
func (c *Client) CreateProduct(ctx context.Context, payload mapping.CreatePayload, files PreviewOpener) (json.RawMessage, error) {
	if TokenFromContext(ctx) == "" {
		return nil, ErrMissingToken
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	for _, f := range payload.Fields() {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, err
		}
	}
	for _, img := range payload.Images {
		if err := writeFilePart(ctx, w, "images", img, files); err != nil {
			return nil, err
		}
	}
	if payload.Invoice != nil {
		if err := writeFilePart(ctx, w, "invoice", *payload.Invoice, files); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, addProductPath, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(req)
}

// FetchProduct looks a product up by name or id and returns the raw document.
func (c *Client) FetchProduct(ctx context.Context, query string) (json.RawMessage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	req, err := c.newJSONRequest(ctx, http.MethodGet, productPath+url.PathEscape(query), nil)
	if err != nil {
		return nil, err
	}
	return c.doProduct(req)
}

// UpdateProduct sends a partial update and returns whatever document the server echoes.
func (c *Client) UpdateProduct(ctx context.Context, id string, payload mapping.UpdatePayload) (json.RawMessage, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPatch, productPath+url.PathEscape(id), payload)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	req, err := c.newJSONRequest(ctx, http.MethodDelete, productPath+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

// CreateStockist onboards a retailer account.
func (c *Client) CreateStockist(ctx context.Context, stockist any) (json.RawMessage, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, stockistPath, stockist)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func writeFilePart(ctx context.Context, w *multipart.Writer, field string, pv editor.Preview, files PreviewOpener) error {
	if files == nil {
		return editor.ErrNoPreviewStore
	}
	rc, err := files.Open(ctx, pv.Handle)
	if err != nil {
		return fmt.Errorf("open %s: %w", pv.FileName, err)
	}
	defer rc.Close()

	contentType := pv.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, escapeQuotes(pv.FileName)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, rc)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	token := TokenFromContext(ctx)
	if token == "" {
		return nil, ErrMissingToken
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do executes req and returns the raw JSON body of a 2xx response.
func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Log.Warn("owner api request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	c.Log.Debug("owner api request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)
		return nil, apiErr
	}

	if len(bytes.TrimSpace(raw)) == 0 || !json.Valid(raw) {
		return nil, ErrMalformedResponse
	}
	return raw, nil
}

// doProduct unwraps the {"product": {...}} envelope.
func (c *Client) doProduct(req *http.Request) (json.RawMessage, error) {
	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var env productEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrMalformedResponse
	}
	if len(env.Product) == 0 || string(env.Product) == "null" {
		return nil, ErrMalformedResponse
	}
	return env.Product, nil
}
