// Package demo is the typed execution harness for the query families.
// Every demo follows the same contract: build a query, execute it,
// shape the hits into a typed result, and let the result display
// itself. The harness never branches on a concrete result type.
package demo

import (
	"context"
	"fmt"
	"io"
	"sort"

	"homesearch/internal/backend"
	"homesearch/internal/catalog"
	"homesearch/internal/config"
	"homesearch/internal/embedding"
	"homesearch/internal/query"
	"homesearch/internal/retriever"
)

// Meta identifies a demo in listings.
type Meta struct {
	ID          int
	Name        string
	Category    string
	Description string
}

// Result is the display contract every typed result implements.
type Result interface {
	Display(w io.Writer)
}

// Env carries the wired collaborators a demo runs against.
type Env struct {
	Backend  backend.Backend
	Engine   *retriever.Engine
	Catalog  *catalog.Catalog
	Embedder *embedding.Batcher
	Config   *config.Config
	Size     int // Requested result size
}

// Demo is one registered query demonstration.
type Demo interface {
	Meta() Meta
	Run(ctx context.Context, env *Env) (Result, error)
}

// docDemo is the common shape for demos that are a single query
// document: build, execute, convert.
type docDemo struct {
	meta     Meta
	indices  func(env *Env) []string
	build    func(env *Env) (*query.Doc, error)
	toResult func(env *Env, rs *retriever.ResultSet) (Result, error)
}

func (d *docDemo) Meta() Meta { return d.meta }

func (d *docDemo) Run(ctx context.Context, env *Env) (Result, error) {
	doc, err := d.build(env)
	if err != nil {
		return nil, err
	}
	rs, err := env.Engine.Execute(ctx, d.indices(env), doc)
	if err != nil {
		return nil, err
	}
	return d.toResult(env, rs)
}

// plannerDemo runs through the retrieval engine's planning path
// (extraction, embedding, fusion) rather than a prebuilt document.
type plannerDemo struct {
	meta Meta
	run  func(ctx context.Context, env *Env) (Result, error)
}

func (d *plannerDemo) Meta() Meta { return d.meta }

func (d *plannerDemo) Run(ctx context.Context, env *Env) (Result, error) {
	return d.run(ctx, env)
}

// Registry holds the registered demos keyed by id.
type Registry struct {
	demos map[int]Demo
}

// NewRegistry returns a registry preloaded with the built-in demos.
func NewRegistry() *Registry {
	r := &Registry{demos: map[int]Demo{}}
	for _, d := range builtinDemos() {
		r.Register(d)
	}
	return r
}

// Register adds a demo; duplicate ids panic at startup, not at runtime.
func (r *Registry) Register(d Demo) {
	id := d.Meta().ID
	if _, exists := r.demos[id]; exists {
		panic(fmt.Sprintf("duplicate demo id %d", id))
	}
	r.demos[id] = d
}

// Get returns a demo by id.
func (r *Registry) Get(id int) (Demo, bool) {
	d, ok := r.demos[id]
	return d, ok
}

// All returns the demos ordered by id.
func (r *Registry) All() []Demo {
	out := make([]Demo, 0, len(r.demos))
	for _, d := range r.demos {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Meta().ID < out[j].Meta().ID })
	return out
}

// RunDemo executes one demo and always returns a displayable result:
// on error, an ErrorResult carrying the error kind and message.
func (r *Registry) RunDemo(ctx context.Context, id int, env *Env) (Result, error) {
	d, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("no demo with id %d", id)
	}
	result, err := d.Run(ctx, env)
	if err != nil {
		return &ErrorResult{
			Demo:    d.Meta().Name,
			Kind:    backend.KindOf(err),
			Message: err.Error(),
		}, err
	}
	return result, nil
}
