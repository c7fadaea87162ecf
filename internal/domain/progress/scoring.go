package progress

// Milestone is a completion threshold within a rank and the bonus it pays once.
type Milestone struct {
	Threshold int
	Points    int
}

// Milestones is ordered by ascending threshold.
var Milestones = []Milestone{
	{Threshold: 25, Points: 100},
	{Threshold: 50, Points: 200},
	{Threshold: 75, Points: 300},
	{Threshold: 100, Points: 1000},
}

// BadgeCompletionPoints is the fixed bonus for completing every requirement of a badge.
const BadgeCompletionPoints = 500

// Percent returns floor(approved/total*100), or 0 when total is 0.
func Percent(approved, total int) int {
	if total <= 0 || approved <= 0 {
		return 0
	}
	if approved >= total {
		return 100
	}
	return approved * 100 / total
}

// CrossedMilestones returns the milestones reached by percent that sit above
// the persisted watermark, in ascending order.
func CrossedMilestones(percent, watermark int) []Milestone {
	var out []Milestone
	for _, m := range Milestones {
		if percent >= m.Threshold && watermark < m.Threshold {
			out = append(out, m)
		}
	}
	return out
}

// IsMilestoneValue reports whether v is a legal watermark.
func IsMilestoneValue(v int) bool {
	if v == 0 {
		return true
	}
	for _, m := range Milestones {
		if m.Threshold == v {
			return true
		}
	}
	return false
}
