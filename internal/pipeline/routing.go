package pipeline

// Route places a successful repair by its confidence. A score equal to the
// threshold is accepted, and a zero score is still a successful repair.
func Route(score, threshold float64) Bucket {
	if score >= threshold {
		return BucketRepaired
	}
	return BucketLowConfidence
}
