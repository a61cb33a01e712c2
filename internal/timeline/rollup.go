package timeline

import "github.com/joescharf/worktime/internal/models"

// Rollup is the total time of one project or activity type.
type Rollup struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Seconds int64  `json:"seconds"`
	// Percentage is nil when the overall total is zero.
	Percentage *float64 `json:"percentage"`
}

// Rollups sums seconds per project and per activity type over the raw
// session set, in order of first appearance. Merging never feeds into this.
func Rollups(sessions []*models.Session) (byProject, byActivity []Rollup, total int64) {
	byProject = sumBy(sessions, func(s *models.Session) string { return s.ProjectID })
	byActivity = sumBy(sessions, func(s *models.Session) string { return s.ActivityName() })
	for _, s := range sessions {
		total += s.Seconds
	}
	setPercentages(byProject, total)
	setPercentages(byActivity, total)
	return byProject, byActivity, total
}

func sumBy(sessions []*models.Session, key func(*models.Session) string) []Rollup {
	index := make(map[string]int)
	var out []Rollup
	for _, s := range sessions {
		k := key(s)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Rollup{Key: k, Name: k})
		}
		out[i].Seconds += s.Seconds
	}
	return out
}

func setPercentages(rollups []Rollup, total int64) {
	if total == 0 {
		return
	}
	for i := range rollups {
		pct := float64(rollups[i].Seconds) / float64(total) * 100
		rollups[i].Percentage = &pct
	}
}

// AppRollups sums seconds per sampled application, in order of first
// appearance. Sessions without an app name roll up under "unknown".
func AppRollups(sessions []*models.Session) []Rollup {
	byApp := sumBy(sessions, func(s *models.Session) string { return s.AppName })
	var total int64
	for _, s := range sessions {
		total += s.Seconds
	}
	for i := range byApp {
		if byApp[i].Key == "" {
			byApp[i].Name = "unknown"
		}
	}
	setPercentages(byApp, total)
	return byApp
}
