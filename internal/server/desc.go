package server

import (
	"context"

	"google.golang.org/grpc"

	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/onboarding"
)

const ServiceName = "yachtextract.v1.ExtractionService"

const (
	methodExtract   = "/" + ServiceName + "/Extract"
	methodGetScan   = "/" + ServiceName + "/GetScan"
	methodListScans = "/" + ServiceName + "/ListScans"
	methodMerge     = "/" + ServiceName + "/Merge"
)

func unary[Req any, Resp any](method string, call func(ExtractionServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	_, name := splitMethod(method)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ExtractionServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ExtractionServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func splitMethod(full string) (string, string) {
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == '/' {
			return full[:i], full[i+1:]
		}
	}
	return "", full
}

// ServiceDesc describes yachtextract.v1.ExtractionService for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(methodExtract, ExtractionServer.Extract),
		unary(methodGetScan, ExtractionServer.GetScan),
		unary(methodListScans, ExtractionServer.ListScans),
		unary(methodMerge, ExtractionServer.Merge),
	},
	Metadata: "yachtextract/v1/extraction.json",
}

func RegisterExtractionServer(s grpc.ServiceRegistrar, srv ExtractionServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ExtractionClient calls the service with the JSON codec.
type ExtractionClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractionClient(cc grpc.ClientConnInterface) *ExtractionClient {
	return &ExtractionClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExtractionClient) Extract(ctx context.Context, in *ExtractRequest, opts ...grpc.CallOption) (*ExtractResponse, error) {
	return invoke[ExtractResponse](ctx, c.cc, methodExtract, in, opts)
}

func (c *ExtractionClient) GetScan(ctx context.Context, in *GetScanRequest, opts ...grpc.CallOption) (*entity.ScanJob, error) {
	return invoke[entity.ScanJob](ctx, c.cc, methodGetScan, in, opts)
}

func (c *ExtractionClient) ListScans(ctx context.Context, in *ListScansRequest, opts ...grpc.CallOption) (*ListScansResponse, error) {
	return invoke[ListScansResponse](ctx, c.cc, methodListScans, in, opts)
}

func (c *ExtractionClient) Merge(ctx context.Context, in *MergeRequest, opts ...grpc.CallOption) (*onboarding.State, error) {
	return invoke[onboarding.State](ctx, c.cc, methodMerge, in, opts)
}
