// Package gateway holds the API Gateway proxy handlers of the seed and
// record functions.
package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/okian/acolyte/internal/domain/model"
	"github.com/okian/acolyte/internal/domain/types"
	"github.com/okian/acolyte/pkg/logger"
)

// Seeder writes record lists to the object store.
type Seeder interface {
	SeedDefault(ctx context.Context) (types.SeedAck, error)
	Upload(ctx context.Context, warriors []model.Warrior) (types.SeedAck, error)
}

// SeedHandler serves /warriors.
type SeedHandler struct {
	seeder Seeder
	cors   CORS
	log    logger.Logger
}

// NewSeedHandler creates the seed surface.
func NewSeedHandler(seeder Seeder, cors CORS) *SeedHandler {
	return &SeedHandler{seeder: seeder, cors: cors, log: logger.Named("gateway.seed")}
}

// Handle answers GET with a write of the default roster and POST with a
// write of the posted records under a fresh key. Storage faults are
// returned as the invocation error; API Gateway turns them into a 502.
func (h *SeedHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	const op = "gateway.seed"
	log := withRequestID(ctx, h.log)

	switch req.HTTPMethod {
	case http.MethodOptions:
		return preflight(h.cors), nil
	case http.MethodGet:
		ack, err := h.seeder.SeedDefault(ctx)
		if err != nil {
			log.Error(ctx, "seed failed", logger.Error(err))
			return events.APIGatewayProxyResponse{}, fmt.Errorf("%s: %w", op, err)
		}
		return jsonResponse(h.cors, http.StatusOK, ack), nil
	case http.MethodPost:
		body, err := requestBody(req)
		if err != nil {
			return errorResponse(h.cors, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err)), nil
		}
		warriors, err := model.ParsePayload(body)
		if err != nil {
			log.Warn(ctx, "rejected upload", logger.Error(err))
			return errorResponse(h.cors, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err)), nil
		}
		ack, err := h.seeder.Upload(ctx, warriors)
		if err != nil {
			log.Error(ctx, "upload failed", logger.Error(err))
			return events.APIGatewayProxyResponse{}, fmt.Errorf("%s: %w", op, err)
		}
		return jsonResponse(h.cors, http.StatusOK, ack), nil
	default:
		return errorResponse(h.cors, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed), nil
	}
}

func withRequestID(ctx context.Context, l logger.Logger) logger.Logger {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return l.With(logger.String("requestId", lc.AwsRequestID))
	}
	return l
}
