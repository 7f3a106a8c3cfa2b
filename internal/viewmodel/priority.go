// Package viewmodel derives what the screens show from backend data. Every
// function is pure.
package viewmodel

import (
	"sort"

	"abricot/internal/model"
)

// UnknownPriorityWeight sorts unrecognised priorities after LOW.
const UnknownPriorityWeight = 99

var priorityWeights = map[model.Priority]int{
	model.PriorityUrgent: 1,
	model.PriorityHigh:   2,
	model.PriorityMedium: 3,
	model.PriorityLow:    4,
}

// PriorityWeight is the sort rank of p, most pressing first.
func PriorityWeight(p model.Priority) int {
	if w, ok := priorityWeights[p]; ok {
		return w
	}
	return UnknownPriorityWeight
}

// SortByPriority returns a copy of tasks ordered URGENT, HIGH, MEDIUM, LOW,
// then unknown. Ties keep their input order.
func SortByPriority(tasks []model.Task) []model.Task {
	out := append([]model.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		return PriorityWeight(out[i].Priority) < PriorityWeight(out[j].Priority)
	})
	return out
}
