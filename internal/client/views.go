package client

import (
	"math"
	"sort"
	"time"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

type Stats struct {
	Total      int
	Completed  int
	Pending    int
	Percentage int
	ByPriority map[model.Priority]int
}

// ComputeStats counts completion with model.IsCompleted, same as Pending and Completed.
func ComputeStats(tasks []model.Task) Stats {
	st := Stats{
		Total: len(tasks),
		ByPriority: map[model.Priority]int{
			model.PriorityLow:    0,
			model.PriorityMedium: 0,
			model.PriorityHigh:   0,
		},
	}
	for _, t := range tasks {
		if model.IsCompleted(t.Completed) {
			st.Completed++
		}
		st.ByPriority[t.Priority]++
	}
	st.Pending = st.Total - st.Completed
	if st.Total > 0 {
		st.Percentage = int(math.Round(float64(st.Completed) / float64(st.Total) * 100))
	}
	return st
}

type Filter string

const (
	FilterAll    Filter = "all"
	FilterToday  Filter = "today"
	FilterWeek   Filter = "week"
	FilterHigh   Filter = "high"
	FilterMedium Filter = "medium"
	FilterLow    Filter = "low"
)

// FilterTasks keeps the input order. "Today" is the calendar date of now in
// now's own location, so pass time.Now() for the user's local day. Week covers
// today through today+7 inclusive. Tasks without a due date never match a date
// filter.
func FilterTasks(tasks []model.Task, f Filter, now time.Time) []model.Task {
	today := model.DateOf(now)
	weekEnd := today.AddDate(0, 0, 7)

	keep := func(t model.Task) bool {
		switch f {
		case FilterToday:
			return t.DueDate != nil && model.Day(*t.DueDate).Equal(today)
		case FilterWeek:
			if t.DueDate == nil {
				return false
			}
			d := model.Day(*t.DueDate)
			return !d.Before(today) && !d.After(weekEnd)
		case FilterHigh:
			return t.Priority == model.PriorityHigh
		case FilterMedium:
			return t.Priority == model.PriorityMedium
		case FilterLow:
			return t.Priority == model.PriorityLow
		}
		return true
	}

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

type SortOrder string

const (
	SortNewest     SortOrder = "newest"
	SortOldest     SortOrder = "oldest"
	SortByPriority SortOrder = "priority"
)

// SortTasks returns a sorted copy. Ties keep their input order.
func SortTasks(tasks []model.Task, order SortOrder) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)

	var less func(a, b model.Task) bool
	switch order {
	case SortOldest:
		less = func(a, b model.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortByPriority:
		less = func(a, b model.Task) bool { return a.Priority.Rank() > b.Priority.Rank() }
	default:
		less = func(a, b model.Task) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func Pending(tasks []model.Task) []model.Task {
	return byCompletion(tasks, false)
}

func Completed(tasks []model.Task) []model.Task {
	return byCompletion(tasks, true)
}

func byCompletion(tasks []model.Task, completed bool) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if model.IsCompleted(t.Completed) == completed {
			out = append(out, t)
		}
	}
	return out
}

// Recent returns up to n most recently created tasks.
func Recent(tasks []model.Task, n int) []model.Task {
	if n <= 0 {
		return []model.Task{}
	}
	sorted := SortTasks(tasks, SortNewest)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
