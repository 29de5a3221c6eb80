package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"

	"github.com/okian/acolyte/pkg/logger"
)

// ProxyHandler is the signature of an API Gateway proxy integration.
type ProxyHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

const maxBodyBytes = 6 << 20 // API Gateway payload limit

// Proxy adapts a proxy handler to net/http the way API Gateway invokes it:
// the request becomes a proxy event, a returned error becomes a 502.
func Proxy(h ProxyHandler, resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := NewProxyRequest(r, resource)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
			return
		}

		ctx := lambdacontext.NewContext(r.Context(), &lambdacontext.LambdaContext{
			AwsRequestID: req.RequestContext.RequestID,
		})
		resp, err := h(ctx, req)
		if err != nil {
			logger.Get().Error(ctx, "proxy handler failed",
				logger.String("path", r.URL.Path),
				logger.String("requestId", req.RequestContext.RequestID),
				logger.Error(err),
			)
			writeJSON(w, http.StatusBadGateway, map[string]string{"message": "Internal server error"})
			return
		}
		if err := writeProxyResponse(w, resp); err != nil {
			logger.Get().Error(ctx, "proxy response invalid", logger.Error(err))
		}
	}
}

// NewProxyRequest translates an HTTP request into a proxy event.
func NewProxyRequest(r *http.Request, resource string) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return events.APIGatewayProxyRequest{}, fmt.Errorf("read body: %w", err)
	}

	req := events.APIGatewayProxyRequest{
		Resource:                        resource,
		Path:                            r.URL.Path,
		HTTPMethod:                      r.Method,
		Headers:                         map[string]string{},
		MultiValueHeaders:               map[string][]string{},
		QueryStringParameters:           map[string]string{},
		MultiValueQueryStringParameters: map[string][]string{},
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:        uuid.NewString(),
			Stage:            "local",
			ResourcePath:     resource,
			HTTPMethod:       r.Method,
			Path:             r.URL.Path,
			RequestTimeEpoch: time.Now().UnixMilli(),
		},
	}
	for k, v := range r.Header {
		req.Headers[k] = v[0]
		req.MultiValueHeaders[k] = v
	}
	for k, v := range r.URL.Query() {
		req.QueryStringParameters[k] = v[0]
		req.MultiValueQueryStringParameters[k] = v
	}
	if id, ok := strings.CutPrefix(r.URL.Path, "/records/"); ok && id != "" {
		req.Resource = "/records/{id}"
		req.RequestContext.ResourcePath = req.Resource
		req.PathParameters = map[string]string{"id": id}
	}

	if utf8.Valid(body) {
		req.Body = string(body)
	} else {
		req.Body = base64.StdEncoding.EncodeToString(body)
		req.IsBase64Encoded = true
	}
	return req, nil
}

func writeProxyResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) error {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	for k, vs := range resp.MultiValueHeaders {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return fmt.Errorf("%w: base64 body: %w", ErrUpstream, err)
		}
		body = decoded
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}
