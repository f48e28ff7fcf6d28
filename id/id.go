// Package id generates identifiers for events and simulation runs.
package id

import (
	"log"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

var (
	generatorMutex        sync.Mutex
	generatorInstantiated bool
	generator             Generator
)

// Generator can generate ids.
type Generator interface {
	Generate() string
}

// UseSequential makes every later id a decimal counter. Runs that use it are
// reproducible.
func UseSequential() {
	use(&sequentialGenerator{})
}

// UseParallel makes every later id an xid. Ids are unique across goroutines
// and processes but not deterministic.
func UseParallel() {
	use(parallelGenerator{})
}

func use(g Generator) {
	generatorMutex.Lock()
	defer generatorMutex.Unlock()

	if generatorInstantiated {
		log.Panic("cannot change id generator type after using it")
	}

	generator = g
	generatorInstantiated = true
}

// Get returns the process-wide generator, defaulting to sequential ids.
func Get() Generator {
	generatorMutex.Lock()
	defer generatorMutex.Unlock()

	if !generatorInstantiated {
		generator = &sequentialGenerator{}
		generatorInstantiated = true
	}

	return generator
}

// NewSequential returns a private sequential generator.
func NewSequential() Generator {
	return &sequentialGenerator{}
}

type sequentialGenerator struct {
	nextID atomic.Uint64
}

func (g *sequentialGenerator) Generate() string {
	return strconv.FormatUint(g.nextID.Add(1), 10)
}

type parallelGenerator struct{}

func (parallelGenerator) Generate() string {
	return xid.New().String()
}
