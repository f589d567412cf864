package order

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NumberGenerator produces human-readable order numbers of the form
// ORD-YYYYMMDD-XXXX, where YYYYMMDD is the creation date and XXXX a
// zero-padded random suffix. Clock and randomness are injectable so tests
// can produce deterministic numbers. Uniqueness is enforced by the storage
// layer; callers regenerate on conflict.
type NumberGenerator struct {
	now  func() time.Time
	intn func(n int) int
}

// NewNumberGenerator returns a generator backed by the system clock and
// math/rand.
func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{
		now:  time.Now,
		intn: rand.IntN,
	}
}

// NewNumberGeneratorWith returns a generator using the supplied clock and
// random source.
func NewNumberGeneratorWith(now func() time.Time, intn func(n int) int) *NumberGenerator {
	return &NumberGenerator{now: now, intn: intn}
}

// Next returns a fresh order number.
func (g *NumberGenerator) Next() string {
	return fmt.Sprintf("ORD-%s-%04d", g.now().Format("20060102"), g.intn(10000))
}
