package metadata

import (
	"strings"

	"github.com/conduit-lang/metagraph/internal/model"
)

const (
	// PathSeparator separates the segments of an element path.
	PathSeparator = "::"
	// Root is the path of the root package.
	Root = "Root"
	// ComponentSeparator separates an owner path from the rest of a
	// component reference id.
	ComponentSeparator = "#"
)

// specialTypes are top-level elements that live outside the package tree.
var specialTypes = func() map[string]struct{} {
	m := map[string]struct{}{
		Root:      {},
		"Package": {},
	}
	for _, t := range model.PrimitiveTypes {
		m[t] = struct{}{}
	}
	return m
}()

// IsSpecialType reports whether path names a top-level element without a package.
func IsSpecialType(path string) bool {
	_, ok := specialTypes[path]
	return ok
}

// NameFromPath returns the last segment of a path.
func NameFromPath(path string) string {
	if i := strings.LastIndex(path, PathSeparator); i >= 0 {
		return path[i+len(PathSeparator):]
	}
	return path
}

// PackageFromPath returns the path of the package containing path: Root for
// single-segment paths, and "" for Root and the special types.
func PackageFromPath(path string) string {
	if IsSpecialType(path) {
		return ""
	}
	if i := strings.LastIndex(path, PathSeparator); i >= 0 {
		return path[:i]
	}
	return Root
}

// JoinPath appends name to a package path.
func JoinPath(pkg, name string) string {
	if pkg == "" || pkg == Root {
		return name
	}
	return pkg + PathSeparator + name
}

// OwnerPath returns the element path a reference id belongs to: the prefix
// before ComponentSeparator, or the id itself.
func OwnerPath(referenceID string) string {
	if i := strings.Index(referenceID, ComponentSeparator); i >= 0 {
		return referenceID[:i]
	}
	return referenceID
}
