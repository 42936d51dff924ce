package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/conduit-lang/metagraph/internal/cli/ui"
	"github.com/conduit-lang/metagraph/internal/loader"
	"github.com/conduit-lang/metagraph/internal/model"
)

// maxRenderedValues bounds the values shown per property.
const maxRenderedValues = 5

// describe names an instance for display: its path or reference id when it
// has one, its literal value for primitives, its name otherwise.
func describe(inst model.Instance) string {
	switch x := inst.(type) {
	case nil:
		return "<nil>"
	case *model.PrimitiveInstance:
		if s, ok := x.Value().(string); ok {
			return strconv.Quote(s)
		}
		return model.FormatPrimitive(x.Value())
	case interface{ Path() string }:
		return x.Path()
	case interface{ ReferenceID() string }:
		if id := x.ReferenceID(); id != "" {
			return id
		}
	}
	if name := inst.Name(); name != "" {
		return name
	}
	return fmt.Sprint(inst)
}

func classifierPath(inst model.Instance) string {
	if c, ok := inst.(interface{ ClassifierPath() string }); ok {
		return c.ClassifierPath()
	}
	if p, ok := inst.(*model.PrimitiveInstance); ok {
		return p.TypeName()
	}
	return ""
}

func renderValues(values []model.Instance) string {
	if len(values) == 0 {
		return "[]"
	}
	shown := values
	if len(shown) > maxRenderedValues {
		shown = shown[:maxRenderedValues]
	}
	parts := make([]string, len(shown))
	for i, v := range shown {
		parts[i] = describe(v)
	}
	out := strings.Join(parts, ", ")
	if extra := len(values) - len(shown); extra > 0 {
		out += fmt.Sprintf(" … (+%d)", extra)
	}
	return out
}

func renderCompileStates(states model.CompileStateSet) string {
	names := make([]string, 0, 2)
	for _, s := range states.States() {
		names = append(names, s.String())
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

// resolve returns the instance at a package path or reference id. Unknown
// paths are reported on w with suggestions from the index.
func resolve(w io.Writer, l *loader.Loader, id string, noColor bool) (model.Instance, error) {
	inst, err := l.ResolveReference(id)
	if err == nil {
		return inst, nil
	}
	if errors.Is(err, model.ErrUnresolvable) {
		fmt.Fprint(w, ui.NotFound(id, ui.SuggestPaths(id, knownPaths(l)), noColor))
	}
	return nil, err
}

func knownPaths(l *loader.Loader) []string {
	idx := l.Index()
	paths := idx.VirtualPackages()
	for _, m := range idx.ConcreteElements() {
		paths = append(paths, m.Path)
	}
	return paths
}
