package sim

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Rand is the only source of randomness the engine uses. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
	Read(p []byte) (int, error)
}

func NewRand(seed int64) Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// idSource derives ulids from the engine clock and random source, so a fixed
// seed and clock yield the same ids.
type idSource struct {
	clock   Clock
	entropy *ulid.MonotonicEntropy
	rng     Rand
}

func newIDSource(clock Clock, rng Rand) *idSource {
	return &idSource{clock: clock, entropy: ulid.Monotonic(rng, 0), rng: rng}
}

func (s *idSource) next() string {
	return ulid.MustNew(ulid.Timestamp(s.clock.Now()), s.entropy).String()
}

func (s *idSource) dna() string {
	u, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		return "DNA-" + s.next()
	}
	return "DNA-" + u.String()
}

func randBetween(rng Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}
