// Package report computes savings and ROI aggregates from execution counts
// and automation billing configuration. The store supplies raw grouped
// counts; all rate math lives here.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/WujsST/roi-sheet/internal/domain"
)

// Store is the read surface the report service needs.
type Store interface {
	AutomationRates(ctx context.Context) ([]domain.Automation, error)
	// ExecutionCounts returns per-workflow execution tallies for executions
	// started in [from, to).
	ExecutionCounts(ctx context.Context, from, to time.Time) ([]domain.WorkflowCount, error)
}

// Service aggregates execution data into dashboard and report numbers.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// MoneySavedPerExecution is the value of one successful execution of an
// automation: the hourly rate prorated over the manual time it replaces.
func MoneySavedPerExecution(a domain.Automation) float64 {
	return a.HourlyRate * float64(a.SecondsSavedPerExecution) / 3600
}

// ROIPercentage returns the return on the automation's monthly cost, or
// (0, false) when no cost is configured.
func ROIPercentage(moneySaved, monthlyCost float64) (float64, bool) {
	if monthlyCost <= 0 {
		return 0, false
	}
	return (moneySaved - monthlyCost) / monthlyCost * 100, true
}

// DashboardStats computes the headline dashboard numbers for the month
// containing now. Savings attribute per automation: an execution counts once
// for every automation configured on its workflow id.
func (s *Service) DashboardStats(ctx context.Context, now time.Time) (domain.DashboardStats, error) {
	now = now.UTC()

	automations, err := s.store.AutomationRates(ctx)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("load automations: %w", err)
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthCounts, err := s.store.ExecutionCounts(ctx, monthStart, now)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("count month executions: %w", err)
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayCounts, err := s.store.ExecutionCounts(ctx, dayStart, now)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("count today executions: %w", err)
	}

	countByWorkflow := make(map[string]domain.WorkflowCount, len(monthCounts))
	for _, c := range monthCounts {
		countByWorkflow[c.WorkflowID] = c
	}

	var stats domain.DashboardStats
	var savedSeconds int

	for _, a := range automations {
		if a.Status == domain.AutomationStatusHealthy {
			stats.ActiveAutomations++
		}
		c := countByWorkflow[a.WorkflowID]
		stats.TotalSavings += float64(c.Successes) * MoneySavedPerExecution(a)
		savedSeconds += c.Successes * a.SecondsSavedPerExecution
	}
	stats.TimeSavedHours = float64(savedSeconds) / 3600

	var total, successes int
	for _, c := range monthCounts {
		total += c.Total
		successes += c.Successes
	}
	if total > 0 {
		stats.EfficiencyScore = float64(successes) / float64(total) * 100
	}

	// What a full month at the current daily run rate is worth.
	daysElapsed := now.Day()
	daysInMonth := monthStart.AddDate(0, 1, -1).Day()
	stats.InactionCost = stats.TotalSavings / float64(daysElapsed) * float64(daysInMonth)

	for _, c := range dayCounts {
		stats.ExecutionsToday += c.Total
	}

	return stats, nil
}

// MonthlySavings returns per-week savings buckets for the given month.
// Weeks break at Mondays (UTC); the first and last bucket may be partial.
// When clientID is set, only that client's automations contribute.
func (s *Service) MonthlySavings(ctx context.Context, year int, month time.Month, clientID *uuid.UUID) ([]domain.WeeklySavings, error) {
	automations, err := s.store.AutomationRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load automations: %w", err)
	}

	// Per-workflow value of one successful execution, summed across the
	// automations in scope.
	perSuccess := make(map[string]float64)
	for _, a := range automations {
		if clientID != nil && (a.ClientID == nil || *a.ClientID != *clientID) {
			continue
		}
		perSuccess[a.WorkflowID] += MoneySavedPerExecution(a)
	}

	weeks := weeksOfMonth(year, month)
	out := make([]domain.WeeklySavings, 0, len(weeks))

	for i, w := range weeks {
		counts, err := s.store.ExecutionCounts(ctx, w.start, w.end)
		if err != nil {
			return nil, fmt.Errorf("count week %d executions: %w", i+1, err)
		}

		bucket := domain.WeeklySavings{
			WeekLabel: fmt.Sprintf("W%d", i+1),
			WeekStart: w.start,
		}
		for _, c := range counts {
			rate, inScope := perSuccess[c.WorkflowID]
			if clientID != nil && !inScope {
				continue
			}
			bucket.ExecutionsCount += c.Total
			bucket.MoneySaved += float64(c.Successes) * rate
		}
		out = append(out, bucket)
	}

	return out, nil
}

type weekSpan struct {
	start time.Time
	end   time.Time
}

// weeksOfMonth splits a month into buckets breaking at Mondays.
// Every instant of the month belongs to exactly one bucket.
func weeksOfMonth(year int, month time.Month) []weekSpan {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	var spans []weekSpan
	cur := monthStart
	for cur.Before(monthEnd) {
		next := nextMonday(cur)
		if next.After(monthEnd) {
			next = monthEnd
		}
		spans = append(spans, weekSpan{start: cur, end: next})
		cur = next
	}
	return spans
}

// nextMonday returns the first Monday midnight strictly after t.
func nextMonday(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	delta := (8 - int(day.Weekday())) % 7
	if delta == 0 {
		delta = 7
	}
	return day.AddDate(0, 0, delta)
}
