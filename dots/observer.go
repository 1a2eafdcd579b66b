package dots

import "github.com/pthm-cable/dots/genome"

// Observer receives lifecycle events. Implementations must be safe for
// concurrent use: every dot reports from its own goroutine.
type Observer interface {
	RecordGermination()
	RecordDeath(g genome.Genome, age float32)
	RecordSeedRejected()
	RecordRecombination()
}

type nopObserver struct{}

func (nopObserver) RecordGermination()                 {}
func (nopObserver) RecordDeath(genome.Genome, float32) {}
func (nopObserver) RecordSeedRejected()                {}
func (nopObserver) RecordRecombination()               {}
