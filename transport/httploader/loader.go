// Package httploader implements page.Loader over JSON HTTP endpoints that
// return offset-paginated collections wrapped in a response envelope:
//
//	{
//	  "code": 1,
//	  "data": {"current_page": 2, "per_page": 10, "from": 11, "to": 20, "total": 95, "data": [...]},
//	  "errors": {}
//	}
//
// The envelope's from and to are 1-based positions; the loader reports them
// as 0-based offsets. Envelope codes 0 through 99 are successes, 0 meaning an
// empty result. Items are turned into values with a Decoder.
package httploader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/go-querystring/query"
	"github.com/sony/gobreaker"

	"github.com/tailored-agentic-units/pager/model"
	"github.com/tailored-agentic-units/pager/page"
)

const (
	codeEmpty   = 0
	codeOK      = 1
	codeClient  = 400
	codeServer  = 500
	codeSuccess = 100 // Codes below this are successes.
)

// Decoder turns one raw element of a page's data array into an item.
type Decoder[T page.Item] func(raw json.RawMessage) (T, error)

// JSONDecoder decodes items with encoding/json.
func JSONDecoder[T page.Item]() Decoder[T] {
	return func(raw json.RawMessage) (T, error) {
		var item T
		err := json.Unmarshal(raw, &item)
		return item, err
	}
}

// RecordDecoder decodes items as JSON objects and applies schema.
func RecordDecoder(schema *model.Schema) Decoder[model.Record] {
	return func(raw json.RawMessage) (model.Record, error) {
		var attrs map[string]any
		if err := json.Unmarshal(raw, &attrs); err != nil {
			return model.Record{}, err
		}
		return schema.Decode(attrs)
	}
}

type envelope struct {
	Code   *int           `json:"code"`
	Data   *pageBody      `json:"data"`
	Errors map[string]any `json:"errors,omitempty"`
}

type pageBody struct {
	CurrentPage int               `json:"current_page" validate:"gte=0"`
	PerPage     int               `json:"per_page" validate:"gte=0"`
	From        *int              `json:"from" validate:"omitempty,gte=1"`
	To          *int              `json:"to" validate:"omitempty,gte=1"`
	Total       int               `json:"total" validate:"gte=0"`
	Data        []json.RawMessage `json:"data"`
}

type options struct {
	client *http.Client
}

type Option func(*options)

// WithHTTPClient replaces the client built from Config.Timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.client = client }
}

// Loader fetches pages from one endpoint. It is safe for concurrent use.
type Loader[T page.Item] struct {
	cfg      Config
	endpoint *url.URL
	client   *http.Client
	decode   Decoder[T]
	breaker  *gobreaker.CircuitBreaker
	validate *validator.Validate
}

// New creates a Loader for the endpoint in cfg.
func New[T page.Item](cfg *Config, decode Decoder[T], opts ...Option) (*Loader[T], error) {
	c := DefaultConfig()
	if cfg != nil {
		c.Merge(cfg)
	}

	if c.URL == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidConfig)
	}
	endpoint, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if decode == nil {
		return nil, fmt.Errorf("%w: decoder is required", ErrInvalidConfig)
	}

	o := options{client: &http.Client{Timeout: time.Duration(c.Timeout)}}
	for _, opt := range opts {
		opt(&o)
	}

	l := &Loader[T]{
		cfg:      c,
		endpoint: endpoint,
		client:   o.client,
		decode:   decode,
		validate: validator.New(),
	}

	if c.Breaker != nil {
		l.breaker = newBreaker(endpoint.Host, *c.Breaker)
	}

	return l, nil
}

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval),
		Timeout:     time.Duration(cfg.Timeout),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio
		},
	})
}

// Load requests one page. Unsuccessful responses return a *ResponseError;
// while the circuit breaker is open, gobreaker.ErrOpenState is returned
// without a request.
func (l *Loader[T]) Load(ctx context.Context, params page.Params) (*page.Page[T], error) {
	if l.breaker == nil {
		return l.fetch(ctx, params)
	}

	result, err := l.breaker.Execute(func() (any, error) {
		return l.fetch(ctx, params)
	})
	if err != nil {
		return nil, err
	}
	return result.(*page.Page[T]), nil
}

func (l *Loader[T]) fetch(ctx context.Context, params page.Params) (*page.Page[T], error) {
	values, err := l.query(params)
	if err != nil {
		return nil, err
	}

	u := *l.endpoint
	q := u.Query()
	for key, vs := range values {
		q[key] = vs
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range l.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %w", ErrRequestFailed, err)
	}

	return l.parse(resp.StatusCode, body, params)
}

// query encodes the extra parameters and the page position. Struct values in
// Extra are flattened through their `url` tags. The page position always
// wins over an extra of the same name.
func (l *Loader[T]) query(params page.Params) (url.Values, error) {
	values := url.Values{}

	for key, v := range params.Extra {
		rv := reflect.Indirect(reflect.ValueOf(v))
		switch {
		case !rv.IsValid():
			continue
		case rv.Kind() == reflect.Struct:
			nested, err := query.Values(v)
			if err != nil {
				return nil, fmt.Errorf("failed to encode extra %q: %w", key, err)
			}
			for nk, nv := range nested {
				values[nk] = append(values[nk], nv...)
			}
		case rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array:
			for i := range rv.Len() {
				values.Add(key, fmt.Sprint(rv.Index(i).Interface()))
			}
		default:
			values.Set(key, fmt.Sprint(rv.Interface()))
		}
	}

	values.Set(l.cfg.PageParam, strconv.Itoa(params.PageIndex))
	values.Set(l.cfg.PerPageParam, strconv.Itoa(params.PageSize))

	return values, nil
}

func (l *Loader[T]) parse(status int, body []byte, params page.Params) (*page.Page[T], error) {
	empty := &page.Page[T]{PageIndex: params.PageIndex, PageSize: params.PageSize}

	if status == http.StatusNoContent {
		return empty, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if status < 200 || status > 299 {
			return nil, &ResponseError{StatusCode: status, Code: statusCode(status)}
		}
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}

	code := statusCode(status)
	if env.Code != nil {
		code = *env.Code
	}

	if status < 200 || status > 299 || code < 0 || code >= codeSuccess {
		return nil, &ResponseError{StatusCode: status, Code: code, Errors: env.Errors}
	}

	if code == codeEmpty || env.Data == nil {
		return empty, nil
	}

	if err := l.validate.Struct(env.Data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPage, err)
	}

	return l.build(env.Data, params)
}

func (l *Loader[T]) build(body *pageBody, params page.Params) (*page.Page[T], error) {
	p := &page.Page[T]{
		PageIndex: body.CurrentPage,
		PageSize:  body.PerPage,
		Total:     body.Total,
		Data:      make([]T, 0, len(body.Data)),
	}
	if p.PageIndex == 0 {
		p.PageIndex = params.PageIndex
	}
	if p.PageSize == 0 {
		p.PageSize = params.PageSize
	}
	if body.From != nil {
		from := *body.From - 1
		p.From = &from
	}
	if body.To != nil {
		to := *body.To - 1
		p.To = &to
	}

	for i, raw := range body.Data {
		item, err := l.decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", ErrDecodeFailed, i, err)
		}
		p.Data = append(p.Data, item)
	}

	return p, nil
}

// statusCode derives an envelope code from an HTTP status when the body
// does not carry one.
func statusCode(status int) int {
	switch {
	case status == http.StatusNoContent:
		return codeEmpty
	case status >= 200 && status <= 299:
		return codeOK
	case status >= 400 && status <= 499:
		return codeClient
	case status >= 500 && status <= 599:
		return codeServer
	default:
		return codeEmpty
	}
}
