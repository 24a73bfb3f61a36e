package engine

import (
	"403-fuzzer/internal/corpus"
	"403-fuzzer/internal/variants"
)

// Composer lazily yields the cross-product of
// {path variant × method × header set} for one target. Variants are
// generated one path at a time so large corpora never materialize the
// full product. A composer is drained exactly once.
type Composer struct {
	target  string
	paths   []string
	methods []string
	headers []corpus.HeaderSet

	vars   []variants.Variant
	pi, vi int
	mi, hi int
}

// NewComposer builds a composer for target. When methods is empty the
// baseline GET is used. maxMethods/maxHeaders cap iteration at the
// first N corpus entries; zero means no cap.
func NewComposer(target string, paths, methods []string, headers []corpus.HeaderSet, maxMethods, maxHeaders int) *Composer {
	if len(methods) == 0 {
		methods = []string{"GET"}
	}
	if maxMethods > 0 && len(methods) > maxMethods {
		methods = methods[:maxMethods]
	}
	if len(headers) == 0 {
		headers = []corpus.HeaderSet{{}}
	}
	if maxHeaders > 0 && len(headers) > maxHeaders {
		headers = headers[:maxHeaders]
	}
	return &Composer{
		target:  target,
		paths:   paths,
		methods: methods,
		headers: headers,
	}
}

// Total is the number of tasks the composer will yield.
func (c *Composer) Total() int {
	return len(c.paths) * variants.Count * len(c.methods) * len(c.headers)
}

// Next returns the next task, or ok=false when the product is
// exhausted. Header sets cycle fastest, then methods, then variants,
// then paths, preserving corpus order throughout.
func (c *Composer) Next() (Task, bool) {
	if c.vars == nil {
		if c.pi >= len(c.paths) {
			return Task{}, false
		}
		c.vars = variants.Generate(c.paths[c.pi])
		c.vi, c.mi, c.hi = 0, 0, 0
	}

	task := Task{
		Target:  c.target,
		Variant: c.vars[c.vi],
		Method:  c.methods[c.mi],
		Headers: c.headers[c.hi],
	}

	c.hi++
	if c.hi == len(c.headers) {
		c.hi = 0
		c.mi++
	}
	if c.mi == len(c.methods) {
		c.mi = 0
		c.vi++
	}
	if c.vi == len(c.vars) {
		c.vars = nil
		c.pi++
	}
	return task, true
}
