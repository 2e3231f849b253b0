package core

import (
	"sort"
	"strings"
	"sync"
)

// UncategorizedLabel is used when a transaction carries no category.
const UncategorizedLabel = "Uncategorized"

// Category is an entry of the canonical category registry.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// PresetCategories are the labels offered by the entry form.
var PresetCategories = []Category{
	{ID: "food", Label: "Food"},
	{ID: "transport", Label: "Transport"},
	{ID: "shopping", Label: "Shopping"},
	{ID: "housing", Label: "Housing"},
	{ID: "bills", Label: "Bills"},
	{ID: "health", Label: "Health"},
	{ID: "entertainment", Label: "Entertainment"},
	{ID: "salary", Label: "Salary"},
	{ID: "bonus", Label: "Bonus"},
	{ID: "investment", Label: "Investment"},
	{ID: "other", Label: "Other"},
}

// CategoryKey returns the grouping key of a free-text label: trimmed, inner
// whitespace collapsed and case folded. Empty labels map to the
// uncategorized key.
func CategoryKey(label string) string {
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return strings.ToLower(UncategorizedLabel)
	}
	return strings.ToLower(strings.Join(fields, " "))
}

// Registry resolves grouping keys to display labels. Preset categories win;
// unknown keys keep the first label they were seen with.
type Registry struct {
	mu     sync.RWMutex
	labels map[string]string
}

func NewRegistry(presets []Category) *Registry {
	r := &Registry{labels: make(map[string]string, len(presets)+1)}
	for _, c := range presets {
		r.labels[CategoryKey(c.Label)] = c.Label
	}
	r.labels[CategoryKey("")] = UncategorizedLabel
	return r
}

// DefaultRegistry holds the preset categories.
var DefaultRegistry = NewRegistry(PresetCategories)

// Lookup returns the registered label for a key.
func (r *Registry) Lookup(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.labels[key]
	return l, ok
}

// Register adds or replaces the label of a category.
func (r *Registry) Register(c Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels[CategoryKey(c.Label)] = c.Label
}

// Label returns the display label for a key, or the key itself when unknown.
func (r *Registry) Label(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.labels[key]; ok {
		return l
	}
	return key
}

// All returns every registered category sorted by label.
func (r *Registry) All() []Category {
	r.mu.RLock()
	out := make([]Category, 0, len(r.labels))
	for k, l := range r.labels {
		out = append(out, Category{ID: k, Label: l})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
