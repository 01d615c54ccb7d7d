package hostbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifacts_IterateInInsertionOrder(t *testing.T) {
	arts := NewArtifacts()
	arts.Add("backend.js", "/dist/backend.js")
	arts.Add("app.js", "/dist/app.js")
	arts.Add("admin.js", "/dist/admin.js")

	assert.Equal(t, []string{"backend.js", "app.js", "admin.js"}, arts.Names())
	assert.Equal(t, 3, arts.Len())
}

func TestArtifacts_ReAdd_UpdatesPathKeepsPosition(t *testing.T) {
	arts := NewArtifacts()
	arts.Add("backend.js", "/dist/backend.js")
	arts.Add("app.js", "/dist/app.js")
	arts.Add("backend.js", "/dist/v2/backend.js")

	assert.Equal(t, []string{"backend.js", "app.js"}, arts.Names())

	art, ok := arts.Get("backend.js")
	require.True(t, ok)
	assert.Equal(t, "/dist/v2/backend.js", art.ExistsAt)
}

func TestArtifacts_Get_MissingName(t *testing.T) {
	arts := NewArtifacts()

	_, ok := arts.Get("ghost.js")
	assert.False(t, ok)
}

func TestBus_HandlersRunInRegistrationOrder(t *testing.T) {
	bus := NewBus()
	var order []string

	bus.RegisterCompile(func() { order = append(order, "first") })
	bus.RegisterCompile(func() { order = append(order, "second") })
	bus.RegisterDone(func() { order = append(order, "done") })

	bus.EmitCompile()
	bus.EmitDone()

	assert.Equal(t, []string{"first", "second", "done"}, order)
}

func TestBus_EmitWithoutHandlers_IsNoOp(t *testing.T) {
	bus := NewBus()

	bus.EmitCompile()
	bus.EmitDone()
	bus.EmitAfterEmit(NewArtifacts())
}

func TestBus_AfterEmit_DeliversArtifactsAndContinuation(t *testing.T) {
	bus := NewBus()
	arts := NewArtifacts()
	arts.Add("app.js", "/dist/app.js")

	var seen []string
	bus.RegisterAfterEmit(func(got *Artifacts, next func()) {
		seen = got.Names()
		next()
	})

	bus.EmitAfterEmit(arts)

	assert.Equal(t, []string{"app.js"}, seen)
}
