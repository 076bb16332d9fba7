package models

// Workload is the coarse tier describing how many virtual servers a user
// manages. It is derived on every read and never stored.
type Workload string

const (
	WorkloadVeryEasy Workload = "VERY_EASY"
	WorkloadEasy     Workload = "EASY"
	WorkloadMedium   Workload = "MEDIUM"
	WorkloadHard     Workload = "HARD"
)

// workloadRules are evaluated in order, first match wins. The EASY and MEDIUM
// ranges both cover a count of 3; keeping them as an ordered list (rather than
// independent conditions) is what pins 3 to EASY.
var workloadRules = []struct {
	matches func(n int64) bool
	tier    Workload
}{
	{func(n int64) bool { return n >= 1 && n <= 3 }, WorkloadEasy},
	{func(n int64) bool { return n >= 3 && n <= 8 }, WorkloadMedium},
	{func(n int64) bool { return n >= 9 }, WorkloadHard},
}

// ClassifyWorkload maps a user's VPS count to its workload tier. The count
// must be non-negative; callers obtain it from an aggregate query and are
// expected to reject anything outside that domain before classifying.
func ClassifyWorkload(vpsCount int64) Workload {
	for _, rule := range workloadRules {
		if rule.matches(vpsCount) {
			return rule.tier
		}
	}
	return WorkloadVeryEasy
}
