// Package configload composes named build configuration files.
//
// A configuration is identified by a (target, type) pair and lives at
// {directory}/{target}.{type}.hcl relative to the project root. Each file
// holds one unlabeled `config` block (the default) and optionally labeled
// `config "name"` blocks (variants). Blocks are evaluated with the call's
// parameter bag exposed as `param.*`, so a config file behaves as a function
// of its parameters.
//
// A block result may carry an `extends` attribute naming a sibling target.
// The attribute is consumed, the parent configuration of the same type is
// loaded with the exact same parameter bag and no variant selector, and the
// child is merged on top of the parent. Merge semantics are delegated to
// mergo: child wins on scalar conflicts, slices are concatenated.
package configload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/bundlekit/bundlekit/internal/project"
)

var (
	// ErrVariantNotFound reports a config file that has no block matching the
	// requested variant (or no default block when none was requested).
	ErrVariantNotFound = errors.New("config variant not found")
	// ErrExtendsCycle reports a cyclic extends chain. Cycles are detected
	// eagerly rather than left to exhaust the stack.
	ErrExtendsCycle = errors.New("extends cycle")
	// ErrNotMergeable reports an extends value or config shape the merge step
	// cannot work with.
	ErrNotMergeable = errors.New("config is not mergeable")
)

const blockType = "config"

// Options carries the optional arguments of Load.
type Options struct {
	// UseHash injects a fresh epoch-milliseconds build hash into the
	// parameter bag. When false, hash and hashStr are empty strings.
	UseHash bool
	// Params are merged over the hash defaults; caller keys win.
	Params map[string]any
	// Variant selects a labeled config block instead of the default one.
	Variant string
}

// Loader resolves configuration files against a project root.
type Loader struct {
	root *project.Root
}

// NewLoader creates a Loader for the given project root.
func NewLoader(root *project.Root) *Loader {
	return &Loader{root: root}
}

// Load composes the configuration named {target}.{type} from directory.
//
// The parameter bag always contains `hash` and `hashStr`; caller-supplied
// params override those defaults on conflict. Parents in an extends chain
// receive the exact bag built here, with no variant selector.
func (l *Loader) Load(directory, target, typ string, opts Options) (map[string]any, error) {
	bag := buildParams(opts.UseHash, opts.Params)
	return l.load(directory, target, typ, opts.Variant, bag, nil)
}

// buildParams assembles the parameter bag: hash defaults first, caller
// params layered on top.
func buildParams(useHash bool, params map[string]any) map[string]any {
	var hash, hashStr string
	if useHash {
		hash = strconv.FormatInt(time.Now().UnixMilli(), 10)
		hashStr = "." + hash
	}

	bag := map[string]any{
		"hash":    hash,
		"hashStr": hashStr,
	}
	for k, v := range params {
		bag[k] = v
	}
	return bag
}

func (l *Loader) load(directory, target, typ, variant string, bag map[string]any, chain []string) (map[string]any, error) {
	name := target + "." + typ

	for _, seen := range chain {
		if seen == name {
			return nil, fmt.Errorf("%w: %s", ErrExtendsCycle, strings.Join(append(chain, name), " -> "))
		}
	}
	chain = append(chain, name)

	cfg, err := l.evalFile(directory, name, variant, bag)
	if err != nil {
		return nil, err
	}

	ext, ok := cfg["extends"]
	if !ok {
		return cfg, nil
	}
	delete(cfg, "extends")

	parentTarget, ok := ext.(string)
	if !ok || parentTarget == "" {
		return nil, fmt.Errorf("%w: extends in %s must be a target name, got %v", ErrNotMergeable, name, ext)
	}

	// The parent sees the same bag the child was evaluated with and never a
	// variant selector.
	parent, err := l.load(directory, parentTarget, typ, "", bag, chain)
	if err != nil {
		return nil, fmt.Errorf("loading parent of %s: %w", name, err)
	}

	if err := mergo.Merge(&parent, cfg, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return nil, fmt.Errorf("%w: merging %s onto %s: %v", ErrNotMergeable, name, parentTarget, err)
	}
	return parent, nil
}

// evalFile parses {directory}/{name}.hcl, selects the requested config
// block, and evaluates its attributes with the bag exposed as param.*.
func (l *Loader) evalFile(directory, name, variant string, bag map[string]any) (map[string]any, error) {
	relPath := filepath.Join(directory, name+".hcl")
	path := l.root.Path(relPath)

	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", project.ErrModuleNotFound, relPath)
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

	block, err := selectBlock(body, name, variant)
	if err != nil {
		return nil, err
	}

	evalCtx, err := paramContext(bag)
	if err != nil {
		return nil, fmt.Errorf("building params for %s: %w", name, err)
	}

	cfg, err := project.EvalAttributes(block.Body.Attributes, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", name, err)
	}
	return cfg, nil
}

func selectBlock(body *hclsyntax.Body, name, variant string) (*hclsyntax.Block, error) {
	for _, block := range body.Blocks {
		if block.Type != blockType {
			continue
		}
		if variant == "" && len(block.Labels) == 0 {
			return block, nil
		}
		if variant != "" && len(block.Labels) == 1 && block.Labels[0] == variant {
			return block, nil
		}
	}

	if variant == "" {
		return nil, fmt.Errorf("%w: %s has no default config block", ErrVariantNotFound, name)
	}
	return nil, fmt.Errorf("%w: %s has no variant %q", ErrVariantNotFound, name, variant)
}

func paramContext(bag map[string]any) (*hcl.EvalContext, error) {
	attrs := make(map[string]cty.Value, len(bag))
	for k, v := range bag {
		cv, err := project.NativeToCty(v)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", k, err)
		}
		attrs[k] = cv
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"param": cty.ObjectVal(attrs)},
	}, nil
}
