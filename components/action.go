package components

import "math/rand"

// Action is what a living dot does on one firing of its ticker.
type Action uint8

const (
	ActionIdle Action = iota
	ActionDigest
	ActionSeed
)

// NumActions is the size of the action set.
const NumActions = 3

func (a Action) String() string {
	switch a {
	case ActionIdle:
		return "idle"
	case ActionDigest:
		return "digest"
	case ActionSeed:
		return "seed"
	default:
		return "unknown"
	}
}

// RandomAction draws uniformly over the action set.
func RandomAction(rng *rand.Rand) Action {
	return Action(rng.Intn(NumActions))
}
