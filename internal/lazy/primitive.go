package lazy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/conduit-lang/metagraph/internal/model"
)

// PrimitiveValueResolver turns serialized primitive literals into property
// values.
type PrimitiveValueResolver interface {
	ResolveBoolean(v bool) interface{}
	ResolveByte(v byte) interface{}
	ResolveDate(v model.Date) interface{}
	ResolveDateTime(v model.Date) interface{}
	ResolveStrictDate(v model.Date) interface{}
	ResolveLatestDate() interface{}
	ResolveDecimal(v decimal.Decimal) interface{}
	ResolveFloat(v decimal.Decimal) interface{}
	ResolveInteger(v int64) interface{}
	ResolveStrictTime(v model.StrictTime) interface{}
	ResolveString(v string) interface{}
}

// Primitive resolution modes accepted by NewPrimitiveValueResolver.
const (
	PrimitivesDirect     = "direct"
	PrimitivesRepository = "repository"
)

// NewPrimitiveValueResolver returns the resolver for a mode name.
func NewPrimitiveValueResolver(mode string, repo *model.Repository) (PrimitiveValueResolver, error) {
	switch mode {
	case PrimitivesDirect, "":
		return DirectPrimitiveValueResolver{}, nil
	case PrimitivesRepository:
		if repo == nil {
			return nil, fmt.Errorf("primitive mode %q requires a repository", mode)
		}
		return RepositoryPrimitiveValueResolver{Repo: repo}, nil
	default:
		return nil, fmt.Errorf("unknown primitive mode %q", mode)
	}
}

// DirectPrimitiveValueResolver returns plain Go values. Floats become float64.
type DirectPrimitiveValueResolver struct{}

func (DirectPrimitiveValueResolver) ResolveBoolean(v bool) interface{} {
	return v
}

func (DirectPrimitiveValueResolver) ResolveByte(v byte) interface{} {
	return v
}

func (DirectPrimitiveValueResolver) ResolveDate(v model.Date) interface{} {
	return v
}

func (DirectPrimitiveValueResolver) ResolveLatestDate() interface{} {
	return model.LatestDate
}

func (DirectPrimitiveValueResolver) ResolveInteger(v int64) interface{} {
	return v
}

func (DirectPrimitiveValueResolver) ResolveString(v string) interface{} {
	return v
}

func (DirectPrimitiveValueResolver) ResolveDecimal(v decimal.Decimal) interface{} {
	return v
}

func (DirectPrimitiveValueResolver) ResolveFloat(v decimal.Decimal) interface{} {
	f, _ := v.Float64()
	return f
}

func (DirectPrimitiveValueResolver) ResolveStrictTime(v model.StrictTime) interface{} {
	return v
}

func (r DirectPrimitiveValueResolver) ResolveDateTime(v model.Date) interface{} {
	return r.ResolveDate(v)
}

func (r DirectPrimitiveValueResolver) ResolveStrictDate(v model.Date) interface{} {
	return r.ResolveDate(v)
}

// RepositoryPrimitiveValueResolver wraps every literal in a repository
// primitive instance. Strings are interned.
type RepositoryPrimitiveValueResolver struct {
	Repo *model.Repository
}

func (r RepositoryPrimitiveValueResolver) ResolveBoolean(v bool) interface{} {
	return r.Repo.NewBooleanInstance(v)
}

func (r RepositoryPrimitiveValueResolver) ResolveByte(v byte) interface{} {
	return r.Repo.NewByteInstance(v)
}

func (r RepositoryPrimitiveValueResolver) ResolveDate(v model.Date) interface{} {
	return r.Repo.NewDateInstance(v)
}

func (r RepositoryPrimitiveValueResolver) ResolveDateTime(v model.Date) interface{} {
	return r.ResolveDate(v)
}

func (r RepositoryPrimitiveValueResolver) ResolveStrictDate(v model.Date) interface{} {
	return r.ResolveDate(v)
}

func (r RepositoryPrimitiveValueResolver) ResolveLatestDate() interface{} {
	return r.Repo.NewLatestDateInstance()
}

func (r RepositoryPrimitiveValueResolver) ResolveDecimal(v decimal.Decimal) interface{} {
	return r.Repo.NewDecimalInstance(v)
}

func (r RepositoryPrimitiveValueResolver) ResolveFloat(v decimal.Decimal) interface{} {
	f, _ := v.Float64()
	return r.Repo.NewFloatInstance(f)
}

func (r RepositoryPrimitiveValueResolver) ResolveInteger(v int64) interface{} {
	return r.Repo.NewIntegerInstance(v)
}

func (r RepositoryPrimitiveValueResolver) ResolveStrictTime(v model.StrictTime) interface{} {
	return r.Repo.NewStrictTimeInstance(v)
}

func (r RepositoryPrimitiveValueResolver) ResolveString(v string) interface{} {
	return r.Repo.NewStringInstanceCached(v)
}
