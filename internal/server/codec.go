package server

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Services speak google.protobuf.Struct on the wire. Requests and responses
// are plain Go structs with json tags, converted at the handler boundary.

// DecodeStruct fills v from s using v's json tags.
func DecodeStruct(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal struct: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// EncodeStruct converts v, which must marshal to a JSON object, into a
// Struct.
func EncodeStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}

// Unary adapts a typed method into a grpc.MethodDesc.
//
// Behavior:
//   - The wire request is decoded into a fresh Req; a malformed request is
//     InvalidArgument.
//   - Interceptors see the raw Struct, like with generated handlers.
//   - A nil response encodes as an empty object.
//
// Example:
//
//	server.Unary("nearmatch.Chat", "SendMessage",
//		func(srv any, ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
//			return srv.(ChatServer).SendMessage(ctx, req)
//		})
func Unary[Req, Resp any](
	service, method string,
	call func(srv any, ctx context.Context, req *Req) (*Resp, error),
) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method

	handler := func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}

		invoke := func(ctx context.Context, msg any) (any, error) {
			s, ok := msg.(*structpb.Struct)
			if !ok {
				return nil, status.Errorf(codes.Internal, "unexpected request type %T", msg)
			}
			req := new(Req)
			if err := DecodeStruct(s, req); err != nil {
				return nil, status.Error(codes.InvalidArgument, err.Error())
			}

			resp, err := call(srv, ctx, req)
			if err != nil {
				return nil, err
			}
			if resp == nil {
				return &structpb.Struct{}, nil
			}
			out, err := EncodeStruct(resp)
			if err != nil {
				return nil, status.Error(codes.Internal, err.Error())
			}
			return out, nil
		}

		if interceptor == nil {
			return invoke(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, invoke)
	}

	return grpc.MethodDesc{MethodName: method, Handler: handler}
}
