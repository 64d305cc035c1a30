// Package lambda serves the HTTP router behind an API Gateway HTTP API
// (payload format 2.0).
package lambda

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
)

// Adapter translates API Gateway events into requests for an http.Handler.
type Adapter struct {
	proxy *httpadapter.HandlerAdapterV2
}

// New wraps handler.
func New(handler http.Handler) (*Adapter, error) {
	if handler == nil {
		return nil, errors.New("lambda: handler must not be nil")
	}
	return &Adapter{proxy: httpadapter.NewV2(handler)}, nil
}

// Handle is the lambda.Start entrypoint.
func (a *Adapter) Handle(ctx context.Context, ev events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := a.proxy.ProxyWithContext(ctx, ev)
	if err != nil {
		return resp, fmt.Errorf("lambda: proxy request: %w", err)
	}
	return resp, nil
}
