package domain

import "time"

// Metrics summarizes a user's task history. It is computed per request and never stored.
type Metrics struct {
	TasksCompleted    int `json:"tasksCompleted"`
	TotalTasksCreated int `json:"totalTasksCreated"`
	CompletionRate    int `json:"completionRate"`
	StreakDays        int `json:"streakDays"`
	EfficiencyScore   int `json:"efficiencyScore"`
}

// ComputeMetrics derives productivity statistics from tasks. Calendar days are taken in loc,
// or the local time zone when loc is nil.
//
// StreakDays counts distinct days with at least one completion; it does not require the
// days to be consecutive. EfficiencyScore is on-time completions over all tasks, so open
// tasks lower it.
func ComputeMetrics(tasks []Task, loc *time.Location) Metrics {
	if loc == nil {
		loc = time.Local
	}

	type day struct {
		year  int
		month time.Month
		day   int
	}

	var completed, onTime int
	days := make(map[day]struct{})
	for i := range tasks {
		t := &tasks[i]
		if !t.IsCompleted() {
			continue
		}
		completed++
		if t.CompletedOnTime() {
			onTime++
		}
		y, m, d := t.UpdatedAt.In(loc).Date()
		days[day{y, m, d}] = struct{}{}
	}

	total := len(tasks)
	return Metrics{
		TasksCompleted:    completed,
		TotalTasksCreated: total,
		CompletionRate:    percent(completed, total),
		StreakDays:        len(days),
		EfficiencyScore:   percent(onTime, total),
	}
}

// percent returns round-half-up(100*n/total), or 0 when total is 0.
func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*n + total) / (2 * total)
}
