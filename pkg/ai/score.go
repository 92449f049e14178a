package ai

import (
	"regexp"
	"strconv"
)

var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,3})\s*点`),
	regexp.MustCompile(`採点[^\n0-9]*(\d{1,3})`),
	regexp.MustCompile(`得点[^\n0-9]*(\d{1,3})`),
}

// ExtractScore mines a 0-100 score out of a free-form critique. The critique
// format is only a prompt-level contract, so a match is never guaranteed; the
// second return value reports whether one was found.
func ExtractScore(text string) (int, bool) {
	for _, pattern := range scorePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			score, err := strconv.Atoi(match[1])
			if err != nil || score > 100 {
				continue
			}
			return score, true
		}
	}

	return 0, false
}

func newReview(advice string) Review {
	review := Review{Advice: advice}
	if score, ok := ExtractScore(advice); ok {
		review.Score = &score
	}
	return review
}
