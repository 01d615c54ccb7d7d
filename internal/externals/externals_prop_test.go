package externals

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"

	"github.com/bundlekit/bundlekit/internal/project"
)

var packageName = rapid.StringMatching(`[a-z][a-z0-9-]{0,15}`)

func manifestRoot(t *rapid.T, dir string, deps, devDeps map[string]string) *project.Root {
	data, err := json.Marshal(map[string]any{
		"name":            "prop-app",
		"dependencies":    deps,
		"devDependencies": devDeps,
	})
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "package.json"), data, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return project.New(dir)
}

// Extras always land in the result with their path value, regardless of the
// ignore list, and every entry value is a commonjs directive.
func TestResolve_Properties(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(t *rapid.T) {
		deps := rapid.MapOfN(packageName, rapid.StringMatching(`\^?[0-9]\.[0-9]\.[0-9]`), 0, 8).Draw(t, "deps")
		devDeps := rapid.MapOfN(packageName, rapid.StringMatching(`\^?[0-9]\.[0-9]\.[0-9]`), 0, 8).Draw(t, "devDeps")
		extras := rapid.MapOfN(packageName, rapid.StringMatching(`\./[a-z]{1,8}`), 0, 4).Draw(t, "extras")
		ignore := rapid.SliceOfN(packageName, 0, 4).Draw(t, "ignore")

		root := manifestRoot(t, dir, deps, devDeps)

		result, err := Resolve(root, Options{
			Extras:     extras,
			IncludeDev: true,
			Ignore:     ignore,
		})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}

		for name, path := range extras {
			if got := result[name]; got != "commonjs "+path {
				t.Fatalf("extra %q = %q, want %q", name, got, "commonjs "+path)
			}
		}

		ignored := make(map[string]bool, len(ignore))
		for _, name := range ignore {
			ignored[name] = true
		}
		for name := range deps {
			if _, isExtra := extras[name]; isExtra || ignored[name] {
				continue
			}
			if got := result[name]; got != "commonjs "+name {
				t.Fatalf("dependency %q = %q, want %q", name, got, "commonjs "+name)
			}
		}
		for name, value := range result {
			if _, isExtra := extras[name]; isExtra {
				continue
			}
			if ignored[name] {
				t.Fatalf("ignored name %q present as %q", name, value)
			}
		}
	})
}

// IncludeDev only ever grows the result set.
func TestResolve_IncludeDevIsMonotone(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(t *rapid.T) {
		deps := rapid.MapOfN(packageName, rapid.StringMatching(`[0-9]\.[0-9]\.[0-9]`), 0, 6).Draw(t, "deps")
		devDeps := rapid.MapOfN(packageName, rapid.StringMatching(`[0-9]\.[0-9]\.[0-9]`), 0, 6).Draw(t, "devDeps")

		root := manifestRoot(t, dir, deps, devDeps)

		withoutDev, err := Resolve(root, Options{})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		withDev, err := Resolve(root, Options{IncludeDev: true})
		if err != nil {
			t.Fatalf("resolve with dev: %v", err)
		}

		for name, value := range withoutDev {
			if withDev[name] != value {
				t.Fatalf("entry %q changed from %q to %q when adding dev deps", name, value, withDev[name])
			}
		}
	})
}
