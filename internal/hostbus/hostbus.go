// Package hostbus is the registration surface a build-watch host exposes to
// plugins. The host owns the event loop and delivers after-emit, compile and
// done strictly sequentially for a given bus; handlers never run
// concurrently with each other.
package hostbus

// Event names fired by a build-watch host.
const (
	EventAfterEmit = "after-emit"
	EventCompile   = "compile"
	EventDone      = "done"
)

// Artifact is one emitted build output, identified by its bundle name and
// carrying the path it was written to on disk.
type Artifact struct {
	Name     string
	ExistsAt string
}

// Artifacts is an insertion-ordered collection of build artifacts. Iteration
// order is the order names were added in, which makes "the first artifact"
// a defined concept rather than an accident of map ordering.
type Artifacts struct {
	list  []Artifact
	index map[string]int
}

// NewArtifacts creates an empty artifact collection.
func NewArtifacts() *Artifacts {
	return &Artifacts{index: make(map[string]int)}
}

// Add records an artifact. Re-adding a name overwrites its path but keeps
// its original position.
func (a *Artifacts) Add(name, existsAt string) {
	if i, ok := a.index[name]; ok {
		a.list[i].ExistsAt = existsAt
		return
	}
	a.index[name] = len(a.list)
	a.list = append(a.list, Artifact{Name: name, ExistsAt: existsAt})
}

// Get returns the artifact with the given name.
func (a *Artifacts) Get(name string) (Artifact, bool) {
	i, ok := a.index[name]
	if !ok {
		return Artifact{}, false
	}
	return a.list[i], true
}

// List returns the artifacts in insertion order.
func (a *Artifacts) List() []Artifact {
	return append([]Artifact(nil), a.list...)
}

// Names returns the artifact names in insertion order.
func (a *Artifacts) Names() []string {
	names := make([]string, len(a.list))
	for i, art := range a.list {
		names[i] = art.Name
	}
	return names
}

// Len returns the number of artifacts.
func (a *Artifacts) Len() int { return len(a.list) }

// AfterEmitHandler receives the emitted artifacts and a continuation. The
// handler must invoke next exactly once, synchronously, so the host's build
// pipeline is never blocked.
type AfterEmitHandler func(artifacts *Artifacts, next func())

// Plugin is anything that registers handlers against a bus.
type Plugin interface {
	Apply(bus *Bus)
}

// Bus holds the registered handlers for one host instance.
type Bus struct {
	afterEmit []AfterEmitHandler
	compile   []func()
	done      []func()
}

// NewBus creates an empty bus.
func NewBus() *Bus { return &Bus{} }

// RegisterAfterEmit adds a handler for the after-emit event.
func (b *Bus) RegisterAfterEmit(h AfterEmitHandler) {
	b.afterEmit = append(b.afterEmit, h)
}

// RegisterCompile adds a handler for the compile event.
func (b *Bus) RegisterCompile(h func()) {
	b.compile = append(b.compile, h)
}

// RegisterDone adds a handler for the done event.
func (b *Bus) RegisterDone(h func()) {
	b.done = append(b.done, h)
}

// EmitAfterEmit delivers artifacts to every after-emit handler in
// registration order. Each handler gets its own continuation; the pipeline
// proceeds to the next handler once the current one has called it.
func (b *Bus) EmitAfterEmit(artifacts *Artifacts) {
	for _, h := range b.afterEmit {
		h(artifacts, func() {})
	}
}

// EmitCompile fires the compile event.
func (b *Bus) EmitCompile() {
	for _, h := range b.compile {
		h()
	}
}

// EmitDone fires the done event.
func (b *Bus) EmitDone() {
	for _, h := range b.done {
		h()
	}
}
