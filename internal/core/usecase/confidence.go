package usecase

import "github.com/budala187/nexora-context-backend/internal/core/domain"

// scoreConfidence converts sub-execution outcomes into a bounded confidence
// percentage. The ceilings reflect how much corroboration the answer has:
// even a fully successful run never reports more than 95.
func scoreConfidence(execs []domain.SubExecution) int {
	total := len(execs)
	if total == 0 {
		return 0
	}

	successes := countSuccesses(execs)
	successRate := float64(successes) / float64(total) * 100

	switch {
	case successes >= 3:
		return capAt(successRate, 95)
	case successes == 2:
		return capAt(successRate, 85)
	case successes == 1:
		return capAt(successRate, 70)
	default:
		return int(successRate)
	}
}

func capAt(rate float64, ceiling int) int {
	if rate > float64(ceiling) {
		return ceiling
	}
	return int(rate)
}

func countSuccesses(execs []domain.SubExecution) int {
	n := 0
	for _, exec := range execs {
		if exec.Succeeded {
			n++
		}
	}
	return n
}
