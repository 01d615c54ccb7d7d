package configload

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlekit/bundlekit/internal/project"
)

func testLoader() *Loader {
	return NewLoader(project.New("testdata"))
}

func TestLoad_DefaultBlock_ReturnsDeclaredObject(t *testing.T) {
	cfg, err := testLoader().Load("config", "app", "development", Options{})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"mode":    "development",
		"devtool": "eval-source-map",
	}, cfg)
}

func TestLoad_WithoutHash_ParamsAreEmptyStrings(t *testing.T) {
	cfg, err := testLoader().Load("config", "web", "production", Options{
		Params: map[string]any{"title": "Web"},
	})

	require.NoError(t, err)
	assert.Equal(t, "", cfg["hash"], "hash should be empty without use-hash")
	assert.Equal(t, "dist/web.js", cfg["output"], "hashStr should be empty without use-hash")
	assert.Equal(t, "Web", cfg["title"])
}

func TestLoad_WithHash_HashAndHashStrAreConsistent(t *testing.T) {
	before := time.Now().UnixMilli()
	cfg, err := testLoader().Load("config", "web", "production", Options{
		UseHash: true,
		Params:  map[string]any{"title": "Web"},
	})
	after := time.Now().UnixMilli()

	require.NoError(t, err)

	hash, ok := cfg["hash"].(string)
	require.True(t, ok, "hash should be a string, got %T", cfg["hash"])
	require.NotEmpty(t, hash)

	ms, err := strconv.ParseInt(hash, 10, 64)
	require.NoError(t, err, "hash should be epoch milliseconds")
	assert.GreaterOrEqual(t, ms, before)
	assert.LessOrEqual(t, ms, after)

	assert.Equal(t, "dist/web."+hash+".js", cfg["output"], "hashStr must equal '.'+hash within one call")
}

func TestLoad_CallerParams_OverrideHashDefaults(t *testing.T) {
	cfg, err := testLoader().Load("config", "web", "production", Options{
		UseHash: true,
		Params: map[string]any{
			"title":   "Web",
			"hash":    "pinned",
			"hashStr": ".pinned",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "pinned", cfg["hash"])
	assert.Equal(t, "dist/web.pinned.js", cfg["output"])
}

func TestLoad_Variant_SelectsLabeledBlock(t *testing.T) {
	cfg, err := testLoader().Load("config", "app", "development", Options{Variant: "debug"})

	require.NoError(t, err)
	assert.Equal(t, "inline-source-map", cfg["devtool"])
	assert.Equal(t, true, cfg["debug"])
}

func TestLoad_MissingVariant_Fails(t *testing.T) {
	_, err := testLoader().Load("config", "app", "development", Options{Variant: "nope"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestLoad_MissingFile_Fails(t *testing.T) {
	_, err := testLoader().Load("config", "ghost", "production", Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, project.ErrModuleNotFound)
}

func TestLoad_Extends_MergesParentUnderChild(t *testing.T) {
	cfg, err := testLoader().Load("config", "app", "production", Options{})

	require.NoError(t, err)

	// The extends marker is consumed.
	_, hasExtends := cfg["extends"]
	assert.False(t, hasExtends, "extends must be removed from the merged config")

	// Child wins on scalar conflicts, parent-only keys survive.
	assert.Equal(t, "production", cfg["mode"])
	assert.Equal(t, "node", cfg["target"])
	assert.Equal(t, "dist/app.js", cfg["output"])

	// Array-valued keys concatenate, parent first.
	assert.Equal(t, []any{"base-plugin", "app-plugin"}, cfg["plugins"])

	// Nested objects merge key-wise.
	assert.Equal(t, map[string]any{"cpu": 2, "memory": 512}, cfg["limits"])
}

func TestLoad_ExtendsCycle_FailsFast(t *testing.T) {
	_, err := testLoader().Load("config", "loop-a", "production", Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtendsCycle)
	assert.Contains(t, err.Error(), "loop-a.production")
	assert.Contains(t, err.Error(), "loop-b.production")
}
