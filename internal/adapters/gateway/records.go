package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/okian/acolyte/internal/adapters/repository"
	"github.com/okian/acolyte/internal/domain/model"
	"github.com/okian/acolyte/internal/domain/types"
	"github.com/okian/acolyte/pkg/logger"
)

// RecordReader reads the record table.
type RecordReader interface {
	Get(ctx context.Context, id int64) (model.Item, error)
	List(ctx context.Context) ([]model.Item, error)
}

// RecordsHandler serves /records, /records/{id} and the /fetchWarriors alias.
type RecordsHandler struct {
	records RecordReader
	cors    CORS
	log     logger.Logger
}

// NewRecordsHandler creates the read surface.
func NewRecordsHandler(records RecordReader, cors CORS) *RecordsHandler {
	return &RecordsHandler{records: records, cors: cors, log: logger.Named("gateway.records")}
}

// Handle lists every record sorted by id, or returns the record named by
// the id path parameter.
func (h *RecordsHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log := withRequestID(ctx, h.log)

	switch req.HTTPMethod {
	case http.MethodOptions:
		return preflight(h.cors), nil
	case http.MethodGet:
	default:
		return errorResponse(h.cors, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed), nil
	}

	raw, ok := recordID(req)
	if !ok {
		items, err := h.records.List(ctx)
		if err != nil {
			log.Error(ctx, "list records failed", logger.Error(err))
			return errorResponse(h.cors, http.StatusInternalServerError, "internal_error", err), nil
		}
		return jsonResponse(h.cors, http.StatusOK, types.NewRecordList(items)), nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return errorResponse(h.cors, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: id %q is not an integer", ErrBadRequest, raw)), nil
	}
	item, err := h.records.Get(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return errorResponse(h.cors, http.StatusNotFound, "not_found", err), nil
	case err != nil:
		log.Error(ctx, "get record failed", logger.Int64("id", id), logger.Error(err))
		return errorResponse(h.cors, http.StatusInternalServerError, "internal_error", err), nil
	}
	return jsonResponse(h.cors, http.StatusOK, item), nil
}

func recordID(req events.APIGatewayProxyRequest) (string, bool) {
	if id, ok := req.PathParameters["id"]; ok {
		return id, true
	}
	rest, found := strings.CutPrefix(req.Path, "/records/")
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}
