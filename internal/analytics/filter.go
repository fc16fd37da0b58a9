package analytics

import "spendlens/internal/models"

// Filter returns the records matching q's category and, for a complete
// Custom range, its inclusive date bounds. The input slice is not modified.
func Filter(records []models.Expense, q Query) []models.Expense {
	out := make([]models.Expense, 0, len(records))
	for _, r := range records {
		if q.matchesCategory(r) && q.matchesRange(r) {
			out = append(out, r)
		}
	}
	return out
}

func (q Query) matchesCategory(r models.Expense) bool {
	return q.Category == "" || q.Category == AllCategories || string(r.Category) == q.Category
}

func (q Query) matchesRange(r models.Expense) bool {
	if !q.dateFiltered() {
		return true
	}
	return !r.Date.Before(*q.Start) && !r.Date.After(*q.End)
}
