package objectstore

import (
	"context"
	"crypto/md5" //nolint:gosec // S3 ETags of single-part uploads are MD5 digests
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/acolyte/internal/domain/model"
	"github.com/okian/acolyte/pkg/logger"
)

// Publisher receives the create notification of every written object.
type Publisher interface {
	Publish(ctx context.Context, body string) error
}

// Object is a stored object as the memory store keeps it.
type Object struct {
	Body        []byte
	ContentType string
	ETag        string
	VersionID   string
}

// MemoryStore is a single in-process bucket. With a Publisher attached it
// emits the same notification body S3 sends to SQS on every write.
type MemoryStore struct {
	mu        sync.RWMutex
	bucket    string
	objects   map[string]Object
	publisher Publisher
	sequence  uint64
	log       logger.Logger
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithPublisher attaches the notification target.
func WithPublisher(p Publisher) MemoryOption {
	return func(m *MemoryStore) {
		m.publisher = p
	}
}

// NewMemoryStore creates an empty bucket.
func NewMemoryStore(bucket string, opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		bucket:  bucket,
		objects: make(map[string]Object),
		log:     logger.Named("objectstore"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PutObject stores a copy of body and publishes the create notification.
// The write stays visible when publishing fails, as it would in S3.
func (m *MemoryStore) PutObject(ctx context.Context, key string, body []byte, contentType string) (model.ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return model.ObjectRef{}, err
	}
	sum := md5.Sum(body) //nolint:gosec // see import
	obj := Object{
		Body:        append([]byte(nil), body...),
		ContentType: contentType,
		ETag:        `"` + hex.EncodeToString(sum[:]) + `"`,
		VersionID:   uuid.NewString(),
	}

	m.mu.Lock()
	m.objects[key] = obj
	m.sequence++
	seq := m.sequence
	m.mu.Unlock()

	ref := model.ObjectRef{Bucket: m.bucket, Key: key, ETag: obj.ETag, VersionID: obj.VersionID}
	if m.publisher == nil {
		return ref, nil
	}
	note, err := model.NewNotification(model.UploadEvent{
		Bucket:    m.bucket,
		Key:       key,
		Size:      int64(len(body)),
		ETag:      hex.EncodeToString(sum[:]),
		Sequencer: fmt.Sprintf("%016X", seq),
	})
	if err == nil {
		err = m.publisher.Publish(ctx, note)
	}
	if err != nil {
		m.log.Error(ctx, "create notification not delivered", logger.String("key", key), logger.Error(err))
	}
	return ref, nil
}

// GetObject returns a copy of the stored body.
func (m *MemoryStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bucket != m.bucket {
		return nil, fmt.Errorf("%s: %w", bucket, ErrBucketNotFound)
	}
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrObjectNotFound)
	}
	return append([]byte(nil), obj.Body...), nil
}

// Object returns the stored object with its metadata.
func (m *MemoryStore) Object(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Keys lists the stored keys in lexical order.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Bucket returns the bucket name.
func (m *MemoryStore) Bucket() string { return m.bucket }
