package connectloader

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/pager/page"
)

// NewHandler serves loader at procedure and returns the path to mount the
// handler on, in the style of generated Connect constructors. Errors from
// loader that are not already Connect errors are reported as CodeInternal.
//
//	path, handler := connectloader.NewHandler(connectloader.DefaultProcedure, loader, encode)
//	mux.Handle(path, handler)
func NewHandler[T page.Item](procedure string, loader page.Loader[T], encode Encoder[T], opts ...connect.HandlerOption) (string, http.Handler) {
	if procedure == "" {
		procedure = DefaultProcedure
	}

	handler := connect.NewUnaryHandler(
		procedure,
		func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
			params := decodeParams(req.Msg)
			if params.PageIndex < 1 || params.PageSize < 1 {
				return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("page and page_size must be positive"))
			}

			p, err := loader.Load(ctx, params)
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					return nil, connectErr
				}
				return nil, connect.NewError(connect.CodeInternal, err)
			}

			msg, err := encodePage(p, params, encode)
			if err != nil {
				return nil, connect.NewError(connect.CodeInternal, err)
			}
			return connect.NewResponse(msg), nil
		},
		opts...,
	)

	return procedure, handler
}
