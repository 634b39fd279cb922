package types

// Classification thresholds on the average of all dimension scores.
// At or above MeetsTargetsThreshold the document meets its targets;
// between the two it needs improvement; below NeedsImprovementThreshold
// it is treated as not meaningfully reviewed.
const (
	MeetsTargetsThreshold     = 8.5
	NeedsImprovementThreshold = 7.0
)

// Classify maps a score mapping to its lifecycle status. Pure and
// deterministic: no I/O, total over any score map (an empty map averages
// to 0 and classifies as needs_review, matching how discovery seeds
// entries with all-zero scores).
func Classify(scores Scores) Status {
	avg := scores.Average()
	switch {
	case avg >= MeetsTargetsThreshold:
		return StatusMeetsTargets
	case avg >= NeedsImprovementThreshold:
		return StatusNeedsImprovement
	default:
		return StatusNeedsReview
	}
}
