// Package grpcaddr integrates clientaddr with gRPC servers.
//
// The peer address comes from google.golang.org/grpc/peer and header values
// from incoming metadata, whose keys gRPC stores in lower case.
package grpcaddr

import (
	"context"
	"strings"

	"github.com/abczzz13/clientaddr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

// Request adapts an incoming gRPC call context to clientaddr.Request.
func Request(ctx context.Context) clientaddr.Request {
	in := clientaddr.RequestInput{
		Headers: clientaddr.HeaderValuesFunc(func(name string) []string {
			md, ok := metadata.FromIncomingContext(ctx)
			if !ok {
				return nil
			}
			return md.Get(strings.ToLower(name))
		}),
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		in.RemoteAddr = p.Addr.String()
	}
	if method, ok := grpc.Method(ctx); ok {
		in.Path = method
	}

	return in
}

// Resolve resolves the client address of ctx without caching.
func Resolve(ctx context.Context, resolver *clientaddr.Resolver) (clientaddr.ClientAddr, bool) {
	return resolver.ResolveFrom(ctx, Request(ctx))
}

func withCache(ctx context.Context, resolver *clientaddr.Resolver) context.Context {
	return clientaddr.WithCache(ctx, clientaddr.NewCache(resolver, Request(ctx)))
}

// UnaryServerInterceptor attaches a per-call clientaddr.Cache to the handler
// context. Read it with FromContext.
func UnaryServerInterceptor(resolver *clientaddr.Resolver) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return handler(withCache(ctx, resolver), req)
	}
}

// StreamServerInterceptor attaches a per-stream clientaddr.Cache to the
// stream context.
func StreamServerInterceptor(resolver *clientaddr.Resolver) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		return handler(srv, &wrappedStream{
			ServerStream: ss,
			ctx:          withCache(ss.Context(), resolver),
		})
	}
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}

// FromContext returns the memoized client address of the call.
func FromContext(ctx context.Context) (clientaddr.ClientAddr, bool) {
	return clientaddr.FromContext(ctx)
}
