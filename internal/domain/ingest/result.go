package ingest

import (
	"encoding/json"
	"net/http"

	"github.com/okian/acolyte/internal/domain/faults"
	"github.com/okian/acolyte/internal/domain/types"
)

// emptyBody is the body of every no-op outcome.
const emptyBody = "{}"

// Result is the outcome of processing one message or one object.
// Err is nil for every Ok outcome; otherwise it carries a fault kind.
type Result struct {
	StatusCode int
	Body       string
	Objects    int
	Upserted   int
	Err        error
}

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.Err == nil }

// EmptyBatch is the outcome of a batch without records. It is not a failure.
func EmptyBatch() Result {
	return Result{StatusCode: http.StatusNotFound, Body: emptyBody}
}

func ok(body string, objects, upserted int) Result {
	return Result{StatusCode: http.StatusOK, Body: body, Objects: objects, Upserted: upserted}
}

// Failed builds the value a swallowed fault is returned as.
func Failed(err error) Result {
	b, _ := json.Marshal(types.ErrorBody{Code: faults.Label(err), Message: err.Error()})
	return Result{StatusCode: http.StatusInternalServerError, Body: string(b), Err: err}
}
