package gateway

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/okian/acolyte/internal/domain/types"
)

type response = events.APIGatewayProxyResponse

func jsonResponse(cors CORS, status int, v any) response {
	headers := cors.Headers()
	headers["Content-Type"] = "application/json; charset=utf-8"
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"code":"internal_error","message":"response encoding failed"}`)
	}
	return response{StatusCode: status, Headers: headers, Body: string(b)}
}

func errorResponse(cors CORS, status int, code string, err error) response {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	return jsonResponse(cors, status, types.ErrorBody{Code: code, Message: msg})
}

func preflight(cors CORS) response {
	return response{StatusCode: http.StatusNoContent, Headers: cors.Headers()}
}

// requestBody returns the raw request body, decoding base64 bodies.
func requestBody(req events.APIGatewayProxyRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}
