package redisstore

import (
	"context"

	"go.uber.org/zap"

	"github.com/conduit-lang/metagraph/internal/compiler/element"
	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
	"github.com/conduit-lang/metagraph/internal/loader"
)

var _ loader.Source = (*CachedSource)(nil)

const (
	backRefsKeyPrefix = "backrefs:"
	elementKeyPrefix  = "element:"
)

// CachedSource serves back references, and optionally element records, from
// the cache before falling back to the wrapped source. Misses are back-filled.
// Redis failures degrade to the wrapped source.
type CachedSource struct {
	source        loader.Source
	cache         *Cache
	logger        *zap.Logger
	cacheElements bool
}

// Option configures a CachedSource.
type Option func(*CachedSource)

// WithElements also caches element records.
func WithElements() Option {
	return func(s *CachedSource) { s.cacheElements = true }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *CachedSource) { s.logger = logger }
}

// NewCachedSource wraps source with cache.
func NewCachedSource(source loader.Source, cache *Cache, opts ...Option) *CachedSource {
	s := &CachedSource{source: source, cache: cache, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CachedSource) Index(ctx context.Context) ([]metadata.ConcreteElementMetadata, error) {
	return s.source.Index(ctx)
}

func (s *CachedSource) Element(ctx context.Context, path string) (*element.DeserializedConcreteElement, error) {
	if !s.cacheElements {
		return s.source.Element(ctx, path)
	}

	key := elementKeyPrefix + path
	if payload, ok := s.lookup(ctx, key); ok {
		e, err := decodeElement(payload)
		if err == nil {
			return e, nil
		}
		s.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
	}

	e, err := s.source.Element(ctx, path)
	if err != nil {
		return nil, err
	}
	if payload, err := encodeElement(e); err == nil {
		s.store(ctx, key, payload)
	}
	return e, nil
}

func (s *CachedSource) BackReferences(ctx context.Context, path string) (metadata.ElementBackReferences, error) {
	key := backRefsKeyPrefix + path
	if payload, ok := s.lookup(ctx, key); ok {
		refs, err := decodeBackReferences(payload)
		if err == nil {
			if len(refs) == 0 {
				return nil, nil
			}
			return refs, nil
		}
		s.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
	}

	refs, err := s.source.BackReferences(ctx, path)
	if err != nil {
		return nil, err
	}
	// Empty results are cached too so absent paths do not reach the source.
	if payload, err := encodeBackReferences(refs); err == nil {
		s.store(ctx, key, payload)
	}
	return refs, nil
}

// Invalidate drops the cached records of path.
func (s *CachedSource) Invalidate(ctx context.Context, path string) error {
	if err := s.cache.Delete(ctx, backRefsKeyPrefix+path); err != nil {
		return err
	}
	return s.cache.Delete(ctx, elementKeyPrefix+path)
}

func (s *CachedSource) lookup(ctx context.Context, key string) ([]byte, bool) {
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		if !IsCacheMiss(err) {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return payload, true
}

func (s *CachedSource) store(ctx context.Context, key string, payload []byte) {
	if err := s.cache.Set(ctx, key, payload, 0); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func encodeElement(e *element.DeserializedConcreteElement) ([]byte, error) {
	data, err := element.Encode(e)
	if err != nil {
		return nil, err
	}
	return metadata.Compress(data)
}

func decodeElement(payload []byte) (*element.DeserializedConcreteElement, error) {
	data, err := metadata.Decompress(payload)
	if err != nil {
		return nil, err
	}
	return element.Decode(data)
}

func encodeBackReferences(refs metadata.ElementBackReferences) ([]byte, error) {
	data, err := metadata.SerializeBackReferences(refs)
	if err != nil {
		return nil, err
	}
	return metadata.Compress(data)
}

func decodeBackReferences(payload []byte) (metadata.ElementBackReferences, error) {
	data, err := metadata.Decompress(payload)
	if err != nil {
		return nil, err
	}
	return metadata.DeserializeBackReferences(data)
}
