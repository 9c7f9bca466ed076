// Package connectloader carries page requests over a Connect unary RPC.
//
// Requests and responses are google.protobuf.Struct messages, so no generated
// code is needed on either side:
//
//	request:  {"page": 2, "page_size": 10, "extra": {...}}
//	response: {"page": 2, "page_size": 10, "from": 10, "to": 19, "total": 95, "data": [{...}, ...]}
//
// Offsets in the response are 0-based. Loader is the client; NewHandler
// serves any page.Loader on the server side.
package connectloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/pager/model"
	"github.com/tailored-agentic-units/pager/page"
)

// DefaultProcedure is used when Config.Procedure is empty.
const DefaultProcedure = "/pager.v1.PageService/Load"

var (
	ErrInvalidConfig = errors.New("invalid loader config")
	ErrEncodeFailed  = errors.New("encode failed")
	ErrDecodeFailed  = errors.New("decode failed")
)

type Config struct {
	BaseURL   string `json:"base_url"`
	Procedure string `json:"procedure,omitempty"`
}

func DefaultConfig() Config {
	return Config{Procedure: DefaultProcedure}
}

func (c *Config) Merge(source *Config) {
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}

	if source.Procedure != "" {
		c.Procedure = source.Procedure
	}
}

// Decoder turns one element of the response data list into an item.
type Decoder[T page.Item] func(s *structpb.Struct) (T, error)

// Encoder turns an item into one element of the response data list.
type Encoder[T page.Item] func(item T) (*structpb.Struct, error)

// RecordDecoder applies schema to each element.
func RecordDecoder(schema *model.Schema) Decoder[model.Record] {
	return func(s *structpb.Struct) (model.Record, error) {
		return schema.Decode(s.AsMap())
	}
}

// RecordEncoder sends a record's original attributes.
func RecordEncoder(rec model.Record) (*structpb.Struct, error) {
	return structpb.NewStruct(rec.Raw())
}

type options struct {
	httpClient connect.HTTPClient
	client     []connect.ClientOption
}

type Option func(*options)

func WithHTTPClient(c connect.HTTPClient) Option {
	return func(o *options) { o.httpClient = c }
}

// WithClientOptions passes options such as interceptors or connect.WithGRPC
// to the underlying Connect client.
func WithClientOptions(opts ...connect.ClientOption) Option {
	return func(o *options) { o.client = append(o.client, opts...) }
}

// Loader fetches pages from a Connect service. Connect errors are returned
// unchanged, so connect.CodeOf works on them.
type Loader[T page.Item] struct {
	client *connect.Client[structpb.Struct, structpb.Struct]
	decode Decoder[T]
}

func New[T page.Item](cfg *Config, decode Decoder[T], opts ...Option) (*Loader[T], error) {
	c := DefaultConfig()
	if cfg != nil {
		c.Merge(cfg)
	}

	if c.BaseURL == "" {
		return nil, fmt.Errorf("%w: base_url is required", ErrInvalidConfig)
	}
	if decode == nil {
		return nil, fmt.Errorf("%w: decoder is required", ErrInvalidConfig)
	}

	o := options{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(c.Procedure, "/")

	return &Loader[T]{
		client: connect.NewClient[structpb.Struct, structpb.Struct](o.httpClient, url, o.client...),
		decode: decode,
	}, nil
}

func (l *Loader[T]) Load(ctx context.Context, params page.Params) (*page.Page[T], error) {
	req, err := encodeParams(params)
	if err != nil {
		return nil, err
	}

	res, err := l.client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}

	return decodePage(res.Msg, params, l.decode)
}

func encodeParams(params page.Params) (*structpb.Struct, error) {
	fields := map[string]any{
		"page":      params.PageIndex,
		"page_size": params.PageSize,
	}

	if len(params.Extra) > 0 {
		extra, err := plain(params.Extra)
		if err != nil {
			return nil, fmt.Errorf("%w: extra: %w", ErrEncodeFailed, err)
		}
		fields["extra"] = extra
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}
	return s, nil
}

func decodeParams(s *structpb.Struct) page.Params {
	fields := s.GetFields()
	params := page.Params{
		PageIndex: int(fields["page"].GetNumberValue()),
		PageSize:  int(fields["page_size"].GetNumberValue()),
	}
	if extra := fields["extra"].GetStructValue(); extra != nil {
		params.Extra = extra.AsMap()
	}
	return params
}

func encodePage[T page.Item](p *page.Page[T], params page.Params, encode Encoder[T]) (*structpb.Struct, error) {
	if p == nil {
		p = &page.Page[T]{PageIndex: params.PageIndex, PageSize: params.PageSize}
	}

	data := make([]*structpb.Value, 0, len(p.Data))
	for i, item := range p.Data {
		s, err := encode(item)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", ErrEncodeFailed, i, err)
		}
		data = append(data, structpb.NewStructValue(s))
	}

	fields := map[string]*structpb.Value{
		"page":      structpb.NewNumberValue(float64(p.PageIndex)),
		"page_size": structpb.NewNumberValue(float64(p.PageSize)),
		"total":     structpb.NewNumberValue(float64(p.Total)),
		"data":      structpb.NewListValue(&structpb.ListValue{Values: data}),
	}
	if p.From != nil {
		fields["from"] = structpb.NewNumberValue(float64(*p.From))
	}
	if p.To != nil {
		fields["to"] = structpb.NewNumberValue(float64(*p.To))
	}

	return &structpb.Struct{Fields: fields}, nil
}

func decodePage[T page.Item](s *structpb.Struct, params page.Params, decode Decoder[T]) (*page.Page[T], error) {
	fields := s.GetFields()

	p := &page.Page[T]{
		PageIndex: params.PageIndex,
		PageSize:  params.PageSize,
		Total:     int(fields["total"].GetNumberValue()),
	}
	if v, ok := fields["page"]; ok {
		p.PageIndex = int(v.GetNumberValue())
	}
	if v, ok := fields["page_size"]; ok {
		p.PageSize = int(v.GetNumberValue())
	}
	p.From = offset(fields["from"])
	p.To = offset(fields["to"])

	values := fields["data"].GetListValue().GetValues()
	p.Data = make([]T, 0, len(values))
	for i, v := range values {
		item := v.GetStructValue()
		if item == nil {
			return nil, fmt.Errorf("%w: item %d is not an object", ErrDecodeFailed, i)
		}
		decoded, err := decode(item)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", ErrDecodeFailed, i, err)
		}
		p.Data = append(p.Data, decoded)
	}

	return p, nil
}

func offset(v *structpb.Value) *int {
	if _, ok := v.GetKind().(*structpb.Value_NumberValue); !ok {
		return nil
	}
	n := int(v.GetNumberValue())
	return &n
}

// plain converts arbitrary values to the JSON-shaped maps and slices
// structpb accepts.
func plain(m map[string]any) (map[string]any, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
