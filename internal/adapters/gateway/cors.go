package gateway

import (
	"net/http"
	"strings"
)

// CORS describes the headers one gateway surface answers with.
type CORS struct {
	AllowOrigin      string
	AllowCredentials bool
	AllowMethods     []string
	AllowHeaders     []string
}

var defaultAllowHeaders = []string{"Content-Type", "X-Amz-Date", "Authorization", "X-Api-Key"}

// SeedCORS is the policy of the seed surface.
func SeedCORS(origin string, credentials bool) CORS {
	return CORS{
		AllowOrigin:      origin,
		AllowCredentials: credentials,
		AllowMethods: []string{
			http.MethodOptions, http.MethodGet, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowHeaders: defaultAllowHeaders,
	}
}

// RecordsCORS is the policy of the read surface.
func RecordsCORS(origin string, credentials bool) CORS {
	return CORS{
		AllowOrigin:      origin,
		AllowCredentials: credentials,
		AllowMethods:     []string{http.MethodGet},
		AllowHeaders:     defaultAllowHeaders,
	}
}

// Headers renders the policy as response headers.
func (c CORS) Headers() map[string]string {
	h := map[string]string{}
	if c.AllowOrigin == "" {
		return h
	}
	h["Access-Control-Allow-Origin"] = c.AllowOrigin
	if len(c.AllowMethods) > 0 {
		h["Access-Control-Allow-Methods"] = strings.Join(c.AllowMethods, ",")
	}
	if len(c.AllowHeaders) > 0 {
		h["Access-Control-Allow-Headers"] = strings.Join(c.AllowHeaders, ",")
	}
	if c.AllowCredentials {
		h["Access-Control-Allow-Credentials"] = "true"
	}
	return h
}
