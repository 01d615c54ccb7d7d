// Package project anchors all relative paths used by the library to a single
// project root. Config files, the dependency manifest, and the build output
// directory are all resolved against it, so callers never deal with absolute
// paths directly.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"golang.org/x/text/encoding/htmlindex"
)

// Sentinel errors for the failure classes callers are expected to branch on.
var (
	// ErrModuleNotFound reports a missing config or value file.
	ErrModuleNotFound = errors.New("module not found")
	// ErrFileNotFound reports a missing file on a plain read.
	ErrFileNotFound = errors.New("file not found")
	// ErrDecode reports bytes that are not valid for the requested encoding,
	// or an encoding name the registry does not know.
	ErrDecode = errors.New("decode failed")
)

// Root is a fixed project root directory. All lookups performed through it
// resolve relative paths against that directory.
type Root struct {
	dir string
}

// New returns a Root anchored at dir. The directory is not required to exist
// yet; individual operations fail if their target is absent.
func New(dir string) *Root {
	return &Root{dir: dir}
}

// FromWorkingDir returns a Root anchored at the current working directory.
func FromWorkingDir() (*Root, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	return New(wd), nil
}

// Dir returns the root directory.
func (r *Root) Dir() string { return r.dir }

// Path resolves the given path elements against the project root.
func (r *Root) Path(elem ...string) string {
	return filepath.Join(append([]string{r.dir}, elem...)...)
}

// LoadValues parses the HCL value file at relPath (relative to the root) and
// returns its top-level attributes as native Go values. Expressions in the
// file are evaluated without any variables in scope.
func (r *Root) LoadValues(relPath string) (map[string]any, error) {
	path := r.Path(relPath)
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, relPath)
		}
		return nil, fmt.Errorf("reading %s: %w", relPath, err)
	}

	file, diags := hclparse.NewParser().ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", relPath, diags)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("parsing %s: unexpected body type %T", relPath, file.Body)
	}

	return EvalAttributes(body.Attributes, nil)
}

// ReadFile reads the file at relPath (relative to the root) and decodes it
// using the named character encoding. An empty name means UTF-8. Any IANA
// encoding name known to the x/text registry is accepted.
func (r *Root) ReadFile(relPath, encodingName string) (string, error) {
	path := r.Path(relPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, relPath)
		}
		return "", fmt.Errorf("reading %s: %w", relPath, err)
	}

	if encodingName == "" {
		encodingName = "utf-8"
	}

	// UTF-8 needs no transform, only validation.
	if normalizeEncodingName(encodingName) == "utf-8" {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrDecode, relPath)
		}
		return string(data), nil
	}

	enc, err := htmlindex.Get(encodingName)
	if err != nil {
		return "", fmt.Errorf("%w: unknown encoding %q", ErrDecode, encodingName)
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s as %s: %v", ErrDecode, relPath, encodingName, err)
	}
	return string(decoded), nil
}

func normalizeEncodingName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// EvalAttributes evaluates a set of HCL attributes with the given context and
// converts the results to native Go values.
func EvalAttributes(attrs hclsyntax.Attributes, ctx *hcl.EvalContext) (map[string]any, error) {
	values := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(ctx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluating attribute %q: %w", name, diags)
		}
		native, err := CtyToNative(val)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		values[name] = native
	}
	return values, nil
}
