package loader

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/conduit-lang/metagraph/internal/compiler/element"
	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
	"github.com/conduit-lang/metagraph/internal/lazy"
	"github.com/conduit-lang/metagraph/internal/model"
)

// Options tune a Loader.
type Options struct {
	// Timeout bounds each store call made while initializing an instance.
	// Zero means no timeout.
	Timeout time.Duration
	// Workers bounds Preload concurrency. Zero means GOMAXPROCS.
	Workers int
	Logger  *zap.Logger
}

// Loader resolves element paths and reference ids to instances, building each
// instance at most once.
type Loader struct {
	source  Source
	builder *lazy.Builder
	index   *metadata.Index
	opts    Options
	logger  *zap.Logger

	mu        sync.RWMutex
	instances map[string]model.Instance
	group     singleflight.Group
}

// New reads the index of source and returns a loader over it.
func New(ctx context.Context, source Source, builder *lazy.Builder, opts Options) (*Loader, error) {
	metas, err := source.Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	index, err := metadata.NewIndex(metas)
	if err != nil {
		return nil, fmt.Errorf("invalid index: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	logger.Debug("loaded index", zap.Int("elements", index.Size()))
	return &Loader{
		source:    source,
		builder:   builder,
		index:     index,
		opts:      opts,
		logger:    logger,
		instances: make(map[string]model.Instance),
	}, nil
}

// Index returns the metadata index.
func (l *Loader) Index() *metadata.Index {
	return l.index
}

// Repository returns the repository instances are created in.
func (l *Loader) Repository() *model.Repository {
	return l.builder.Repository()
}

// Loaded returns the number of instances built so far.
func (l *Loader) Loaded() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.instances)
}

// ResolvePackagePath returns the element or package at path, building it on
// first use.
func (l *Loader) ResolvePackagePath(path string) (model.Instance, error) {
	l.mu.RLock()
	inst, ok := l.instances[path]
	l.mu.RUnlock()
	if ok {
		return inst, nil
	}

	v, err, _ := l.group.Do(path, func() (interface{}, error) {
		l.mu.RLock()
		inst, ok := l.instances[path]
		l.mu.RUnlock()
		if ok {
			return inst, nil
		}

		inst, err := l.build(path)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.instances[path] = inst
		l.mu.Unlock()
		return inst, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(model.Instance), nil
}

func (l *Loader) build(path string) (model.Instance, error) {
	meta, ok := l.index.Element(path)
	if !ok {
		return nil, model.Errorf(model.ErrUnresolvable, "unknown element '%s'", path)
	}
	switch m := meta.(type) {
	case metadata.ConcreteElementMetadata:
		e, err := l.builder.BuildConcreteElement(m, l, deserializer{l})
		if err != nil {
			return nil, err
		}
		return e, nil
	case metadata.VirtualPackageMetadata:
		p, err := l.builder.BuildVirtualPackage(m.Path, l.index, l, deserializer{l})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported metadata %T for %s", meta, path)
	}
}

// ResolveReference resolves a reference id: the path of an element, or a
// component id whose owner is the prefix before '#'.
func (l *Loader) ResolveReference(id string) (model.Instance, error) {
	owner := metadata.OwnerPath(id)
	inst, err := l.ResolvePackagePath(owner)
	if err != nil || owner == id {
		return inst, err
	}
	e, ok := inst.(*lazy.ConcreteElement)
	if !ok {
		return nil, model.Errorf(model.ErrUnresolvable, "reference '%s' does not belong to a concrete element", id)
	}
	return e.ComponentByReferenceID(id)
}

type initializer interface {
	Initialize() error
}

// Preload initializes the given elements concurrently, or every concrete
// element when paths is empty. The first failure cancels the remaining work.
func (l *Loader) Preload(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		for _, m := range l.index.ConcreteElements() {
			paths = append(paths, m.Path)
		}
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			inst, err := l.ResolvePackagePath(path)
			if err != nil {
				return err
			}
			if i, ok := inst.(initializer); ok {
				return i.Initialize()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.logger.Info("preloaded elements",
		zap.Int("count", len(paths)),
		zap.Int("workers", l.opts.Workers),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Bootstrap registers Root, Package and the primitive types that the index
// knows as repository top-level elements.
func (l *Loader) Bootstrap() error {
	paths := append([]string{metadata.Root, lazy.PackageClassifier}, model.PrimitiveTypes...)
	for _, path := range paths {
		if _, ok := l.index.Element(path); !ok {
			continue
		}
		inst, err := l.ResolvePackagePath(path)
		if err != nil {
			return fmt.Errorf("failed to bootstrap %s: %w", path, err)
		}
		l.Repository().AddTopLevel(inst)
	}
	return nil
}

func (l *Loader) storeContext() (context.Context, context.CancelFunc) {
	if l.opts.Timeout > 0 {
		return context.WithTimeout(context.Background(), l.opts.Timeout)
	}
	return context.WithCancel(context.Background())
}

// deserializer adapts the loader's source to lazy.Deserializer.
type deserializer struct {
	l *Loader
}

func (d deserializer) DeserializeElement(path string) (*element.DeserializedConcreteElement, error) {
	ctx, cancel := d.l.storeContext()
	defer cancel()
	e, err := d.l.source.Element(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	d.l.logger.Debug("deserialized element", zap.String("path", path), zap.Int("instances", len(e.InstanceData)))
	return e, nil
}

func (d deserializer) DeserializeBackReferences(path string) (metadata.BackReferenceProvider, error) {
	ctx, cancel := d.l.storeContext()
	defer cancel()
	refs, err := d.l.source.BackReferences(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load back references of %s: %w", path, err)
	}
	if refs == nil {
		return metadata.NoBackReferences, nil
	}
	return refs, nil
}
