package propval

import "github.com/conduit-lang/metagraph/internal/model"

// idIndex maps keys to their single element. Keys seen more than once are
// recorded as conflicts and fail on lookup.
type idIndex struct {
	entries   map[interface{}]model.Instance
	conflicts map[interface{}]struct{}
}

func buildIDIndex(spec *model.IndexSpec, values []model.Instance) (*idIndex, error) {
	idx := &idIndex{entries: make(map[interface{}]model.Instance, len(values))}
	for _, inst := range values {
		ok, err := idx.add(spec, inst)
		if err != nil {
			return nil, err
		}
		if !ok {
			if idx.conflicts == nil {
				idx.conflicts = make(map[interface{}]struct{})
			}
			k, _ := spec.Key(inst)
			idx.conflicts[k] = struct{}{}
		}
	}
	return idx, nil
}

// add inserts inst and reports false if its key is already taken.
func (idx *idIndex) add(spec *model.IndexSpec, inst model.Instance) (bool, error) {
	k, err := spec.Key(inst)
	if err != nil {
		return false, err
	}
	if _, taken := idx.entries[k]; taken {
		return false, nil
	}
	if _, conflicted := idx.conflicts[k]; conflicted {
		return false, nil
	}
	idx.entries[k] = inst
	return true, nil
}

// remove deletes inst and reports false if the index can no longer be trusted.
func (idx *idIndex) remove(spec *model.IndexSpec, inst model.Instance) (bool, error) {
	k, err := spec.Key(inst)
	if err != nil {
		return false, err
	}
	if _, conflicted := idx.conflicts[k]; conflicted {
		return false, nil
	}
	if cur, ok := idx.entries[k]; ok && model.ValuesEqual(cur, inst) {
		delete(idx.entries, k)
	}
	return true, nil
}

func (idx *idIndex) get(key interface{}) (model.Instance, error) {
	if _, conflicted := idx.conflicts[key]; conflicted {
		return nil, &model.IDConflictError{Key: key}
	}
	return idx.entries[key], nil
}

// multiIndex maps keys to every element with that key, in collection order.
type multiIndex struct {
	entries map[interface{}][]model.Instance
}

func buildMultiIndex(spec *model.IndexSpec, values []model.Instance) (*multiIndex, error) {
	idx := &multiIndex{entries: make(map[interface{}][]model.Instance)}
	for _, inst := range values {
		if err := idx.add(spec, inst); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func (idx *multiIndex) add(spec *model.IndexSpec, inst model.Instance) error {
	k, err := spec.Key(inst)
	if err != nil {
		return err
	}
	idx.entries[k] = append(idx.entries[k], inst)
	return nil
}

func (idx *multiIndex) remove(spec *model.IndexSpec, inst model.Instance) error {
	k, err := spec.Key(inst)
	if err != nil {
		return err
	}
	bucket := idx.entries[k]
	for i, cur := range bucket {
		if model.ValuesEqual(cur, inst) {
			rest := make([]model.Instance, 0, len(bucket)-1)
			rest = append(rest, bucket[:i]...)
			rest = append(rest, bucket[i+1:]...)
			if len(rest) == 0 {
				delete(idx.entries, k)
			} else {
				idx.entries[k] = rest
			}
			break
		}
	}
	return nil
}

func (idx *multiIndex) get(key interface{}) []model.Instance {
	bucket := idx.entries[key]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]model.Instance, len(bucket))
	copy(out, bucket)
	return out
}

// indexCache holds the indexes built for one collection, keyed by spec.
type indexCache struct {
	ids   map[*model.IndexSpec]*idIndex
	multi map[*model.IndexSpec]*multiIndex
}

func (c *indexCache) empty() bool {
	return c == nil || (len(c.ids) == 0 && len(c.multi) == 0)
}
