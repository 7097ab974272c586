package services

import (
	"fmt"
	"maps"
	"sort"
	"strings"
)

// CapacityResolver answers capacity ceilings for a date and category from a settings snapshot.
// It keeps its own copy of the settings, so later edits by the caller do not leak in.
type CapacityResolver struct {
	defaults   map[string]float64
	dayConfigs map[string]DayConfig
	eventSlots map[string]EventSlot
}

// NewCapacityResolver indexes day configs and event slots by date. Duplicate dates are rejected.
func NewCapacityResolver(settings Settings) (*CapacityResolver, error) {
	r := &CapacityResolver{
		defaults:   maps.Clone(settings.DefaultCapacities),
		dayConfigs: make(map[string]DayConfig, len(settings.DayConfigs)),
		eventSlots: make(map[string]EventSlot, len(settings.EventSlots)),
	}
	for _, cfg := range settings.DayConfigs {
		date := strings.TrimSpace(cfg.Date)
		if _, exists := r.dayConfigs[date]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDayConfig, date)
		}
		cfg.Date = date
		cfg.CapacityOverrides = maps.Clone(cfg.CapacityOverrides)
		r.dayConfigs[date] = cfg
	}
	for _, slot := range settings.EventSlots {
		date := strings.TrimSpace(slot.Date)
		if _, exists := r.eventSlots[date]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEventSlot, date)
		}
		slot.Date = date
		slot.CapacityOverrides = maps.Clone(slot.CapacityOverrides)
		r.eventSlots[date] = slot
	}
	return r, nil
}

// DayLimit returns the standard-lane ceiling: day override, then default capacity, then zero.
// An explicit zero override is honoured.
func (r *CapacityResolver) DayLimit(date, category string) float64 {
	if cfg, ok := r.dayConfigs[date]; ok {
		if limit, ok := cfg.CapacityOverrides[category]; ok {
			return limit
		}
	}
	return r.defaults[category]
}

// EventLimit returns the event-lane ceiling. There is no fallback to default capacity.
func (r *CapacityResolver) EventLimit(date, category string) float64 {
	slot, ok := r.eventSlots[date]
	if !ok {
		return 0
	}
	return slot.CapacityOverrides[category]
}

// IsOpen reports whether the kitchen takes orders on date. Dates without a DayConfig are open.
func (r *CapacityResolver) IsOpen(date string) bool {
	cfg, ok := r.dayConfigs[date]
	if !ok {
		return true
	}
	return cfg.IsOpen
}

// HasEventSlot reports whether date has an event slot configured.
func (r *CapacityResolver) HasEventSlot(date string) bool {
	_, ok := r.eventSlots[date]
	return ok
}

// EventSlotDates lists event slot dates in ascending order.
func (r *CapacityResolver) EventSlotDates() []string {
	dates := make([]string, 0, len(r.eventSlots))
	for date := range r.eventSlots {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}
