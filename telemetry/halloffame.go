package telemetry

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"

	"github.com/pthm-cable/dots/genome"
)

// HallEntry is a genome that lived long enough to be remembered.
type HallEntry struct {
	Genome genome.Genome `json:"genome"`
	Age    float32       `json:"age"`
}

// HallOfFame keeps the longest-lived genomes, best first, for reseeding an
// extinct grid. It is safe for concurrent use.
type HallOfFame struct {
	mu      sync.Mutex
	hall    []HallEntry
	maxSize int
	minAge  float32
	rng     *rand.Rand
}

// NewHallOfFame creates a hall holding up to maxSize genomes that reached minAge.
func NewHallOfFame(maxSize int, minAge float32, rng *rand.Rand) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		hall:    make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
		minAge:  minAge,
		rng:     rng,
	}
}

// Consider offers a dead organism. It returns true if it was admitted.
func (hof *HallOfFame) Consider(g genome.Genome, age float32) bool {
	if age < hof.minAge {
		return false
	}
	hof.mu.Lock()
	defer hof.mu.Unlock()

	var admitted bool
	hof.hall, admitted = hof.insertEntry(hof.hall, HallEntry{Genome: g, Age: age})
	return admitted
}

// insertEntry adds an entry keeping the hall sorted by age, longest first.
// If the hall is full, the shortest-lived entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) ([]HallEntry, bool) {
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Age < entry.Age
	})
	if len(hall) >= hof.maxSize && idx >= hof.maxSize {
		return hall, false
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}
	return hall, true
}

// Sample picks a genome by tournament selection. It returns false when the
// hall is empty.
func (hof *HallOfFame) Sample() (genome.Genome, bool) {
	hof.mu.Lock()
	defer hof.mu.Unlock()
	if len(hof.hall) == 0 {
		return genome.Genome{}, false
	}

	const tournamentSize = 3
	best := -1
	for i := 0; i < tournamentSize; i++ {
		idx := hof.rng.Intn(len(hof.hall))
		if best < 0 || hof.hall[idx].Age > hof.hall[best].Age {
			best = idx
		}
	}
	return hof.hall[best].Genome, true
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	hof.mu.Lock()
	defer hof.mu.Unlock()
	return len(hof.hall)
}

// TopAge returns the longest recorded life, or 0 if the hall is empty.
func (hof *HallOfFame) TopAge() float32 {
	hof.mu.Lock()
	defer hof.mu.Unlock()
	if len(hof.hall) == 0 {
		return 0
	}
	return hof.hall[0].Age
}

// MarshalJSON serializes the hall, best first.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	hof.mu.Lock()
	defer hof.mu.Unlock()
	return json.MarshalIndent(hof.hall, "", "  ")
}

// LoadHallOfFameFromFile reads a hall written by OutputManager.WriteHallOfFame.
func LoadHallOfFameFromFile(path string, maxSize int, minAge float32, rng *rand.Rand) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var entries []HallEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	hof := NewHallOfFame(max(maxSize, len(entries)), minAge, rng)
	for _, e := range entries {
		hof.hall, _ = hof.insertEntry(hof.hall, e)
	}
	return hof, nil
}
