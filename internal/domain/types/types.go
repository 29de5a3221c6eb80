// Package types contains the response shapes shared by the Lambda gateway
// handlers and the local HTTP server.
package types

import "github.com/okian/acolyte/internal/domain/model"

// SeedAck is the body returned after a seed object was written.
type SeedAck struct {
	Bucket    string              `json:"bucket"`
	Key       string              `json:"key"`
	ETag      string              `json:"etag"`
	VersionID string              `json:"versionId,omitempty"`
	Records   []model.WireWarrior `json:"records"`
}

// NewSeedAck builds the acknowledgment for a written roster.
func NewSeedAck(ref model.ObjectRef, warriors []model.Warrior) SeedAck {
	wire := make([]model.WireWarrior, len(warriors))
	for i, w := range warriors {
		wire[i] = w.Wire()
	}
	return SeedAck{
		Bucket:    ref.Bucket,
		Key:       ref.Key,
		ETag:      ref.ETag,
		VersionID: ref.VersionID,
		Records:   wire,
	}
}

// RecordList is the body of the record listing endpoint.
type RecordList struct {
	Count int          `json:"count"`
	Items []model.Item `json:"items"`
}

// NewRecordList wraps items, never encoding a null list.
func NewRecordList(items []model.Item) RecordList {
	if items == nil {
		items = []model.Item{}
	}
	return RecordList{Count: len(items), Items: items}
}

// ErrorBody is the JSON error shape of every gateway route.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
