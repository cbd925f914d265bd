package topics

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/content"
)

// Selection is the topic-selection stage output.
type Selection struct {
	Topic           content.Topic `json:"topic"`
	UniquenessScore float64       `json:"uniqueness_score"`
	Reason          string        `json:"selection_reason"`
}

// Selector picks article topics from the bank.
type Selector struct {
	bank []content.Topic
	pick func(n int) int
}

// Option customizes the selector.
type Option func(*Selector)

// WithPicker overrides the random index source (used by tests).
func WithPicker(pick func(n int) int) Option {
	return func(s *Selector) {
		s.pick = pick
	}
}

// NewSelector loads the topic bank configured in cfg.
func NewSelector(cfg config.Topics, opts ...Option) (*Selector, error) {
	bank, err := LoadBank(cfg.BankPath)
	if err != nil {
		return nil, err
	}
	selector := &Selector{bank: bank, pick: rand.Intn}
	for _, opt := range opts {
		opt(selector)
	}
	return selector, nil
}

// SelectTopic chooses a topic whose title is not among usedTitles, preferring
// categories the used set has not covered or has covered at most once. When
// every bank topic has been used the bank is reused with a reduced uniqueness
// score rather than stalling the pipeline.
func (s *Selector) SelectTopic(ctx context.Context, usedTitles []string) (Selection, error) {
	if err := ctx.Err(); err != nil {
		return Selection{}, err
	}

	used := make(map[string]struct{}, len(usedTitles))
	for _, title := range usedTitles {
		if title = strings.ToLower(strings.TrimSpace(title)); title != "" {
			used[title] = struct{}{}
		}
	}

	categoryCounts := make(map[string]int)
	for _, topic := range s.bank {
		if _, ok := used[strings.ToLower(topic.Title)]; ok {
			categoryCounts[topic.Category]++
		}
	}

	available := make([]content.Topic, 0, len(s.bank))
	for _, topic := range s.bank {
		if _, ok := used[strings.ToLower(topic.Title)]; !ok {
			available = append(available, topic)
		}
	}

	exhausted := len(available) == 0
	if exhausted {
		available = s.bank
	}

	priority := make([]content.Topic, 0, len(available))
	for _, topic := range available {
		if categoryCounts[topic.Category] <= 1 {
			priority = append(priority, topic)
		}
	}

	pool := available
	reason := "random selection from available topics"
	if len(priority) > 0 && !exhausted {
		pool = priority
		reason = "underrepresented category"
	}

	selected := pool[s.pick(len(pool))]
	selection := Selection{
		Topic:           selected,
		UniquenessScore: 1.0,
		Reason:          fmt.Sprintf("%s: %s", reason, selected.Category),
	}
	if exhausted {
		selection.UniquenessScore = 0.5
		selection.Reason = "topic bank exhausted, reusing: " + selected.Category
	}
	return selection, nil
}
