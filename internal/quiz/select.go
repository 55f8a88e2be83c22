package quiz

import (
	"math/rand/v2"
	"slices"

	"github.com/abhisek/prepwise/internal/question"
)

// Select draws up to counts questions of each type from bank. Types keep
// their fixed order; within a type the draw is shuffled by rng, or taken
// in bank order when rng is nil. bank is not modified.
func Select(bank question.Bank, counts question.Counts, rng *rand.Rand) []question.Question {
	var out []question.Question
	for _, t := range question.Types {
		pool := slices.Clone(bank.Of(t))
		n := min(counts.Of(t), len(pool))
		if n <= 0 {
			continue
		}
		if rng != nil {
			rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		}
		out = append(out, pool[:n]...)
	}
	return out
}
