// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package review

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/danielhkuo/youthgov-queue/models"
)

const defaultPageLimit = 10

// Filters are applied to the fetched page and sent with the next refetch
type Filters struct {
	Search     string
	Barangay   string
	VoterMatch string
	ScoreMin   *float64
	ScoreMax   *float64
	SortBy     string
	SortOrder  string
}

// Queue is the reviewer's view of the validation queue: the fetched page,
// counters, the active tab and filters, and the selection set.
type Queue struct {
	mu sync.RWMutex

	tab     string
	filters Filters
	page    int
	limit   int

	items          []models.ValidationQueueItem
	pagination     models.Pagination
	stats          models.QueueStats
	completedToday []models.ValidationQueueItem

	selected map[string]bool
}

func NewQueue() *Queue {
	return &Queue{
		tab:      models.StatusPending,
		page:     1,
		limit:    defaultPageLimit,
		selected: map[string]bool{},
	}
}

func (q *Queue) Tab() string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.tab
}

// SetTab switches tab, resets paging and clears the selection
func (q *Queue) SetTab(tab string) error {
	if !models.IsValidStatus(tab) {
		return fmt.Errorf("unknown tab %q", tab)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tab = tab
	q.page = 1
	q.selected = map[string]bool{}
	return nil
}

func (q *Queue) Filters() Filters {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.filters
}

// SetFilters replaces the filters, resets paging, and drops selected items
// the new filters hide
func (q *Queue) SetFilters(f Filters) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.filters = f
	q.page = 1
	q.pruneSelectionLocked()
}

func (q *Queue) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.page = page
}

func (q *Queue) SetLimit(limit int) {
	if limit < 1 {
		limit = defaultPageLimit
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.limit = limit
	q.page = 1
}

// Query returns the list query for the current tab, filters and page
func (q *Queue) Query() ListQuery {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return ListQuery{
		Page:       q.page,
		Limit:      q.limit,
		Search:     q.filters.Search,
		SortBy:     q.filters.SortBy,
		SortOrder:  q.filters.SortOrder,
		Status:     q.tab,
		Barangay:   q.filters.Barangay,
		VoterMatch: q.filters.VoterMatch,
		ScoreMin:   q.filters.ScoreMin,
		ScoreMax:   q.filters.ScoreMax,
	}
}

// Load replaces the fetched page. Selected IDs missing from it are dropped.
func (q *Queue) Load(p Page) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append([]models.ValidationQueueItem(nil), p.Items...)
	q.pagination = p.Pagination
	q.pruneSelectionLocked()
}

func (q *Queue) Pagination() models.Pagination {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.pagination
}

func (q *Queue) SetStats(s models.QueueStats) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stats = s
}

func (q *Queue) Stats() models.QueueStats {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.stats
}

func (q *Queue) SetCompletedToday(items []models.ValidationQueueItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completedToday = append([]models.ValidationQueueItem(nil), items...)
}

func (q *Queue) CompletedToday() []models.ValidationQueueItem {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]models.ValidationQueueItem(nil), q.completedToday...)
}

// Items returns the fetched page as received
func (q *Queue) Items() []models.ValidationQueueItem {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]models.ValidationQueueItem(nil), q.items...)
}

// Find returns the fetched item with the given ID
func (q *Queue) Find(id string) (models.ValidationQueueItem, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, item := range q.items {
		if item.ID == id {
			return item, true
		}
	}
	return models.ValidationQueueItem{}, false
}

// Visible returns the fetched items matching the tab and filters, sorted
func (q *Queue) Visible() []models.ValidationQueueItem {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.visibleLocked()
}

func (q *Queue) visibleLocked() []models.ValidationQueueItem {
	out := make([]models.ValidationQueueItem, 0, len(q.items))
	for _, item := range q.items {
		if q.matchesLocked(item) {
			out = append(out, item)
		}
	}
	sortItems(out, q.filters.SortBy, q.filters.SortOrder)
	return out
}

func (q *Queue) matchesLocked(item models.ValidationQueueItem) bool {
	f := q.filters
	if item.Status != q.tab {
		return false
	}
	if s := models.FoldName(f.Search); s != "" {
		if !strings.Contains(models.SearchKey(item.FirstName, item.LastName, item.Barangay), s) {
			return false
		}
	}
	if b := models.FoldName(f.Barangay); b != "" && models.FoldName(item.Barangay) != b {
		return false
	}
	if f.VoterMatch != "" && item.VoterMatch != f.VoterMatch {
		return false
	}
	if f.ScoreMin != nil && item.ValidationScore < *f.ScoreMin {
		return false
	}
	if f.ScoreMax != nil && item.ValidationScore > *f.ScoreMax {
		return false
	}
	return true
}

// sortItems orders items like the server does; submittedAt desc by default
func sortItems(items []models.ValidationQueueItem, sortBy, order string) {
	less := func(a, b models.ValidationQueueItem) bool {
		switch sortBy {
		case "lastName":
			return strings.ToLower(a.LastName) < strings.ToLower(b.LastName)
		case "validationScore":
			return a.ValidationScore < b.ValidationScore
		case "barangay":
			return strings.ToLower(a.Barangay) < strings.ToLower(b.Barangay)
		default:
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
	}
	desc := !strings.EqualFold(order, "asc")
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

// Toggle flips selection of a visible item and reports whether it is now
// selected. IDs not visible are ignored.
func (q *Queue) Toggle(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.selected[id] {
		delete(q.selected, id)
		return false
	}
	for _, item := range q.visibleLocked() {
		if item.ID == id {
			q.selected[id] = true
			return true
		}
	}
	return false
}

// SelectAll selects every visible item
func (q *Queue) SelectAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, item := range q.visibleLocked() {
		q.selected[item.ID] = true
	}
}

func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.selected = map[string]bool{}
}

func (q *Queue) IsSelected(id string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.selected[id]
}

// Selected returns the selected IDs in visible order
func (q *Queue) Selected() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	ids := make([]string, 0, len(q.selected))
	for _, item := range q.visibleLocked() {
		if q.selected[item.ID] {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// Remove drops an item after a terminal decision
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			if q.pagination.Total > 0 {
				q.pagination.Total--
			}
			break
		}
	}
	delete(q.selected, id)
}

func (q *Queue) pruneSelectionLocked() {
	visible := map[string]bool{}
	for _, item := range q.visibleLocked() {
		visible[item.ID] = true
	}
	for id := range q.selected {
		if !visible[id] {
			delete(q.selected, id)
		}
	}
}
