package weather

// severity ranks conditions from no-signal (0) to most disruptive.
var severity = map[Condition]int{
	ConditionUnknown:      0,
	ConditionClear:        1,
	ConditionPartlyCloudy: 2,
	ConditionCloudy:       3,
	ConditionMist:         4,
	ConditionDrizzle:      5,
	ConditionRain:         6,
	ConditionThunderstorm: 7,
	ConditionSnow:         8,
}

// Severity returns the rank of c; unrecognized conditions rank with unknown.
func Severity(c Condition) int {
	return severity[c]
}

// MostSevere picks the single condition to report for a day on which the
// provider listed several. Unknown wins only when nothing else was reported.
func MostSevere(conds ...Condition) Condition {
	best := ConditionUnknown
	for _, c := range conds {
		if Severity(c) > Severity(best) {
			best = c
		}
	}
	return best
}
