// Package externals derives a bundler externals map from the project's
// dependency manifest. Every entry maps a dependency name to a
// "commonjs <name-or-path>" directive telling the bundler to resolve the
// package at run time instead of inlining it.
package externals

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/bundlekit/bundlekit/internal/project"
)

// manifestFile is the dependency manifest read from the project root.
const manifestFile = "package.json"

// DefaultExternals are always externalized regardless of the manifest: the
// library's own runtime package and the hot-poll entry it injects.
var DefaultExternals = []string{
	"bundlekit",
	"webpack/hot/poll?100",
}

// DefaultIgnore lists packages that break when required from the host
// environment (ESM-only distributions) and therefore must stay bundled.
var DefaultIgnore = []string{
	"node-fetch",
	"chalk",
	"nanoid",
}

// Options carries the optional arguments of Resolve. Nil slices select the
// built-in defaults; pass an empty non-nil slice to disable them.
type Options struct {
	// Extras maps dependency names to replacement require paths. Extras are
	// applied last: they bypass the ignore filter and overwrite any entry the
	// manifest produced for the same name.
	Extras map[string]string
	// IncludeDev also externalizes devDependencies.
	IncludeDev bool
	// Defaults overrides DefaultExternals.
	Defaults []string
	// Ignore overrides DefaultIgnore.
	Ignore []string
}

type manifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Resolve reads the manifest from the project root and builds the externals
// map: defaults plus dependency names (plus devDependency names when
// requested), minus ignored names, with extras layered on top unfiltered.
func Resolve(root *project.Root, opts Options) (map[string]string, error) {
	data, err := os.ReadFile(root.Path(manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", project.ErrFileNotFound, manifestFile)
		}
		return nil, fmt.Errorf("reading %s: %w", manifestFile, err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", manifestFile, err)
	}

	defaults := opts.Defaults
	if defaults == nil {
		defaults = DefaultExternals
	}
	ignore := opts.Ignore
	if ignore == nil {
		ignore = DefaultIgnore
	}

	ignored := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		ignored[name] = true
	}

	names := append([]string{}, defaults...)
	names = append(names, sortedKeys(m.Dependencies)...)
	if opts.IncludeDev {
		names = append(names, sortedKeys(m.DevDependencies)...)
	}

	result := make(map[string]string, len(names)+len(opts.Extras))
	for _, name := range names {
		if ignored[name] {
			continue
		}
		result[name] = "commonjs " + name
	}

	// Extras win unconditionally, even over the ignore list.
	for name, path := range opts.Extras {
		result[name] = "commonjs " + path
	}

	return result, nil
}

// sortedKeys keeps manifest iteration deterministic; the map is keyed by
// name, so order never changes the final content.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
