package hyper

import (
	"context"
	"fmt"
	"sync"

	"github.com/advdv/hyper/results"
)

// Compiler orders a set of responders by the capabilities they implement and need, and compiles them
// into a single responder. Registration happens before serving, the compiled responder is immutable
// and safe for concurrent use.
type Compiler[I, O any] struct {
	mu    sync.Mutex
	descs []Descriptor[I, O]
	cache *compiled[I, O]
}

type compiled[I, O any] struct {
	order []Descriptor[I, O]
	chain ResponderFunc[I, O]
	err   error
}

// NewCompiler inits a compiler with the given descriptors registered.
func NewCompiler[I, O any](descs ...Descriptor[I, O]) *Compiler[I, O] {
	c := &Compiler[I, O]{}
	c.Register(descs...)

	return c
}

// Register adds responders in the given order. Registration order breaks ties between responders that
// have no ordering constraint between them. It panics when a descriptor has no responder.
func (c *Compiler[I, O]) Register(descs ...Descriptor[I, O]) *Compiler[I, O] {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range descs {
		if d.Responder == nil {
			panic(fmt.Sprintf("hyper: descriptor %q has no responder", d.Name))
		}

		c.descs = append(c.descs, d)
	}

	if len(descs) > 0 {
		c.cache = nil
	}

	return c
}

// Search registers every candidate that is a Descriptor, a *Descriptor or a [Describer] for this
// pipeline's input and output types. Other candidates are skipped. It returns the number registered.
func (c *Compiler[I, O]) Search(candidates ...any) int {
	var found []Descriptor[I, O]
	for _, cand := range candidates {
		if d, ok := DescriptorOf[I, O](cand); ok {
			found = append(found, d)
		}
	}

	c.Register(found...)

	return len(found)
}

// DescriptorOf returns the descriptor of a candidate that is a Descriptor, a *Descriptor or a
// [Describer] for the given input and output types.
func DescriptorOf[I, O any](cand any) (Descriptor[I, O], bool) {
	switch v := cand.(type) {
	case Descriptor[I, O]:
		return v, true
	case *Descriptor[I, O]:
		if v != nil {
			return *v, true
		}
	case Describer[I, O]:
		return v.Describe(), true
	}

	return Descriptor[I, O]{}, false
}

// Responders returns the registered descriptors in execution order.
func (c *Compiler[I, O]) Responders() ([]Descriptor[I, O], error) {
	cc := c.compile()
	if cc.err != nil {
		return nil, cc.err
	}

	return append([]Descriptor[I, O](nil), cc.order...), nil
}

// Compile resolves the execution order and returns the chained responder. A cycle or a capability
// that nobody implements is returned as a [*GraphError]. The result is cached until the next
// registration.
func (c *Compiler[I, O]) Compile() (ResponderFunc[I, O], error) {
	cc := c.compile()

	return cc.chain, cc.err
}

// MustCompile is like Compile but panics on error.
func (c *Compiler[I, O]) MustCompile() ResponderFunc[I, O] {
	chain, err := c.Compile()
	if err != nil {
		panic(err.Error())
	}

	return chain
}

func (c *Compiler[I, O]) compile() *compiled[I, O] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache != nil {
		return c.cache
	}

	caps := interner{}
	nodes := make([]node, len(c.descs))
	for i, d := range c.descs {
		nodes[i] = node{name: d.Name}
		for _, name := range d.Implements {
			nodes[i].implements = append(nodes[i].implements, caps.id(name))
		}
		for _, name := range d.Needs {
			nodes[i].needs = append(nodes[i].needs, caps.id(name))
		}
	}

	capNames := make([]string, len(caps))
	for name, id := range caps {
		capNames[id] = name
	}

	c.cache = &compiled[I, O]{}

	g, err := buildGraph(nodes, capNames)
	if err != nil {
		c.cache.err = err
		return c.cache
	}

	order, err := g.sort()
	if err != nil {
		c.cache.err = err
		return c.cache
	}

	c.cache.order = make([]Descriptor[I, O], len(order))
	units := make([]Responder[I, O], len(order))
	for i, idx := range order {
		c.cache.order[i] = c.descs[idx]
		units[i] = c.descs[idx].Responder
	}

	c.cache.chain = chain(units)

	return c.cache
}

// chain runs units in order on the same input. It stops at the first failure, and at the first
// success that carries a value. Without units it succeeds without a value.
func chain[I, O any](units []Responder[I, O]) ResponderFunc[I, O] {
	return func(ctx context.Context, in I) results.Result[O] {
		res := results.Success[O]()
		for _, u := range units {
			if err := ctx.Err(); err != nil {
				return results.FailureError[O](results.Wrap("pipeline canceled", results.FromErr(err)))
			}

			res = u.Respond(ctx, in)
			if !res.IsSuccess() || res.HasValue() {
				return res
			}
		}

		return res
	}
}
