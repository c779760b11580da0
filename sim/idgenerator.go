package sim

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator can generate IDs
type IDGenerator interface {
	// Generate an ID
	Generate() string
}

var idGenerator = &sequentialIDGenerator{}

// GetIDGenerator returns the ID generator used in the current process. IDs
// are sequential so that recorded runs are reproducible.
func GetIDGenerator() IDGenerator {
	return idGenerator
}

type sequentialIDGenerator struct {
	nextID atomic.Uint64
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(g.nextID.Add(1), 10)
}
