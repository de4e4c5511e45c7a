package feed

import (
	"io"
	"strings"

	"github.com/tally-dev/tally/internal/model"
)

// Parser converts one raw feed file into canonical transactions.
type Parser interface {
	Parse(r io.Reader) ([]model.Transaction, error)
	Source() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate source.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Source())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser source: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for source, or nil.
func (r *Registry) Get(source string) Parser {
	return r.parsers[strings.ToLower(source)]
}

// DefaultRegistry returns a registry with both feed parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&BankParser{})
	r.Register(&ProcessorParser{})
	return r
}
