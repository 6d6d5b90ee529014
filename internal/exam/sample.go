package exam

import "math/rand"

// Sample draws min(n, len(pool)) questions without replacement, in random
// order. The input pool is left untouched. Asking for more questions than
// the pool holds is a clamp, not an error. Plain math/rand is fine here:
// sampling needs fairness, not unpredictability.
func Sample(pool []Question, n int) []Question {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	shuffled := make([]Question, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
