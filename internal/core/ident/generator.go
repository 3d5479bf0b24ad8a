package ident

import (
	"strings"

	"github.com/google/uuid"
)

// suffixLen is the number of hex characters kept from each UUID.
// Eight characters keep identifiers compact while the generator's
// seen-set makes collisions impossible rather than merely unlikely.
const suffixLen = 8

// Generator produces compact, collision-free unique suffixes.
// Each registry owns its own Generator; there is no global instance.
// Not safe for concurrent use, matching the single-threaded core.
type Generator struct {
	seen map[string]struct{}
}

// NewGenerator creates an empty generator.
func NewGenerator() *Generator {
	return &Generator{seen: make(map[string]struct{})}
}

// Suffix returns a fresh unique suffix, never repeating one it has
// handed out or been told about via Reserve.
func (g *Generator) Suffix() string {
	for {
		raw := strings.ReplaceAll(uuid.New().String(), "-", "")
		suffix := raw[:suffixLen]
		if _, taken := g.seen[suffix]; taken {
			continue
		}
		g.seen[suffix] = struct{}{}
		return suffix
	}
}

// Reserve marks an externally supplied suffix as taken, so explicit
// identifiers and generated ones can never collide.
// Reports false if the suffix was already reserved.
func (g *Generator) Reserve(suffix string) bool {
	if _, taken := g.seen[suffix]; taken {
		return false
	}
	g.seen[suffix] = struct{}{}
	return true
}

// Release returns a suffix to the pool after unregistration.
// Releasing an unknown suffix is a no-op, keeping unregister idempotent.
func (g *Generator) Release(suffix string) {
	delete(g.seen, suffix)
}
