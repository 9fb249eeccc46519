package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	SaveFormPath = "/api/save-form"
	LoadFormPath = "/api/load-form"
)

var ErrMalformedResponse = errors.New("malformed response")

// Backend сохраняет и загружает анкеты. SaveForm создаёт анкету при UserID == nil и обновляет в остальных случаях.
type Backend interface {
	SaveForm(ctx context.Context, req SaveFormRequest) (SaveFormResponse, error)
	LoadForm(ctx context.Context, req LoadFormRequest) (LoadFormResponse, error)
}

// StatusError возвращается на неуспешный HTTP-ответ. Тело ответа не разбирается.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

type HTTPBackend struct {
	client   *http.Client
	baseURL  string
	validate *validator.Validate
}

type HTTPBackendOption func(*HTTPBackend)

func WithHTTPClient(client *http.Client) HTTPBackendOption {
	return func(b *HTTPBackend) {
		b.client = client
	}
}

func NewHTTPBackend(baseURL string, opts ...HTTPBackendOption) *HTTPBackend {
	b := &HTTPBackend{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  strings.TrimRight(baseURL, "/"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *HTTPBackend) SaveForm(ctx context.Context, req SaveFormRequest) (SaveFormResponse, error) {
	var resp SaveFormResponse
	if err := b.post(ctx, SaveFormPath, req, &resp); err != nil {
		return SaveFormResponse{}, fmt.Errorf("save form: %w", err)
	}
	return resp, nil
}

func (b *HTTPBackend) LoadForm(ctx context.Context, req LoadFormRequest) (LoadFormResponse, error) {
	var resp LoadFormResponse
	if err := b.post(ctx, LoadFormPath, req, &resp); err != nil {
		return LoadFormResponse{}, fmt.Errorf("load form: %w", err)
	}
	return resp, nil
}

func (b *HTTPBackend) post(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, res.Body)
		return &StatusError{Code: res.StatusCode}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := b.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
