package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/application"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
)

const serviceName = "viralforge.streamaccess.v1.StreamAccessInternalService"

// StreamAccessInternalService is consumed by stream edges that must check a
// watch token before serving segments.
type StreamAccessInternalService interface {
	ClassifyOffering(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyWatchToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type StreamAccessInternalServer struct {
	service *application.Service
}

func NewStreamAccessInternalServer(service *application.Service) *StreamAccessInternalServer {
	return &StreamAccessInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc StreamAccessInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*StreamAccessInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "ClassifyOffering",
				Handler:    unaryHandler("ClassifyOffering", svc.ClassifyOffering),
			},
			{
				MethodName: "VerifyWatchToken",
				Handler:    unaryHandler("VerifyWatchToken", svc.VerifyWatchToken),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "contracts/proto/streamaccess/v1/stream_access_internal.proto",
	}, svc)
}

func (s *StreamAccessInternalServer) ClassifyOffering(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	offeringID := stringField(req, "offering_id")
	if offeringID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing offering_id")
	}
	offering, lifecycle, err := s.service.OfferingStatus(ctx, offeringID)
	if err != nil {
		return nil, toStatus(err)
	}
	resp, err := structpb.NewStruct(map[string]any{
		"offering_id": offering.OfferingID,
		"status":      string(lifecycle),
		"free":        offering.IsFree(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

// VerifyWatchToken answers granted=false for a payment refusal instead of an
// error, so edges can tell "no" from "broken".
func (s *StreamAccessInternalServer) VerifyWatchToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	offeringID := stringField(req, "offering_id")
	if offeringID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing offering_id")
	}
	fields := map[string]any{"offering_id": offeringID, "granted": false}
	offering, err := s.service.CheckWatchAccess(ctx, offeringID, stringField(req, "token"))
	switch {
	case err == nil:
		fields["granted"] = true
		fields["stream_locator"] = offering.StreamLocator
	case errors.Is(err, domain.ErrPaymentRequired):
		fields["reason"] = "payment_required"
	case errors.Is(err, domain.ErrNotAvailable):
		fields["reason"] = "not_available"
	default:
		return nil, toStatus(err)
	}
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func stringField(req *structpb.Struct, name string) string {
	v := req.GetFields()[name]
	if v == nil {
		return ""
	}
	return v.GetStringValue()
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, "offering not found")
	case errors.Is(err, domain.ErrCollaboratorFailure):
		return status.Error(codes.Unavailable, "catalog unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

type unaryMethod func(context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + serviceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
