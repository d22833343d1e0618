package report

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/WujsST/roi-sheet/internal/domain"
	"github.com/WujsST/roi-sheet/internal/testutil"
)

// mockReportStore implements Store for report tests.
type mockReportStore struct {
	mu sync.Mutex

	ratesFn  func(ctx context.Context) ([]domain.Automation, error)
	countsFn func(ctx context.Context, from, to time.Time) ([]domain.WorkflowCount, error)

	countCalls []time.Time
}

func (s *mockReportStore) AutomationRates(ctx context.Context) ([]domain.Automation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ratesFn != nil {
		return s.ratesFn(ctx)
	}
	return nil, nil
}

func (s *mockReportStore) ExecutionCounts(ctx context.Context, from, to time.Time) ([]domain.WorkflowCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countCalls = append(s.countCalls, from)
	if s.countsFn != nil {
		return s.countsFn(ctx, from, to)
	}
	return nil, nil
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMoneySavedPerExecution(t *testing.T) {
	a := domain.Automation{HourlyRate: 60, SecondsSavedPerExecution: 300}
	if got := MoneySavedPerExecution(a); !almostEqual(got, 5.0) {
		t.Errorf("MoneySavedPerExecution = %v, want 5.0", got)
	}
}

func TestROIPercentage(t *testing.T) {
	tests := []struct {
		name    string
		saved   float64
		cost    float64
		want    float64
		defined bool
	}{
		{"profit", 300, 100, 200, true},
		{"break even", 100, 100, 0, true},
		{"loss", 50, 100, -50, true},
		{"no cost configured", 500, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ROIPercentage(tt.saved, tt.cost)
			if ok != tt.defined {
				t.Fatalf("defined = %v, want %v", ok, tt.defined)
			}
			if tt.defined && !almostEqual(got, tt.want) {
				t.Errorf("ROIPercentage = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeksOfMonth_SundayStart(t *testing.T) {
	// March 2026 starts on a Sunday: a one-day first bucket, then full
	// Monday-to-Monday weeks, then a partial tail.
	weeks := weeksOfMonth(2026, time.March)
	if len(weeks) != 6 {
		t.Fatalf("expected 6 buckets for March 2026, got %d", len(weeks))
	}

	first := weeks[0]
	if first.start.Day() != 1 || first.end.Day() != 2 {
		t.Errorf("first bucket should cover March 1 only, got [%v, %v)", first.start, first.end)
	}

	last := weeks[5]
	if last.start.Day() != 30 || last.end.Month() != time.April {
		t.Errorf("last bucket should run March 30 to April 1, got [%v, %v)", last.start, last.end)
	}

	// Buckets tile the month with no gaps.
	for i := 1; i < len(weeks); i++ {
		if !weeks[i].start.Equal(weeks[i-1].end) {
			t.Errorf("gap between bucket %d and %d", i-1, i)
		}
	}
}

func TestWeeksOfMonth_MondayStart(t *testing.T) {
	// June 2026 starts on a Monday: four full weeks plus a partial tail.
	weeks := weeksOfMonth(2026, time.June)
	if len(weeks) != 5 {
		t.Fatalf("expected 5 buckets for June 2026, got %d", len(weeks))
	}
	if weeks[0].start.Day() != 1 || weeks[0].end.Day() != 8 {
		t.Errorf("first bucket should cover June 1-7, got [%v, %v)", weeks[0].start, weeks[0].end)
	}
}

func TestDashboardStats(t *testing.T) {
	ctx := testutil.TestContext(t)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	clientID := testutil.MustParseUUID("33333333-3333-3333-3333-333333333333")
	store := &mockReportStore{
		ratesFn: func(ctx context.Context) ([]domain.Automation, error) {
			return []domain.Automation{
				{WorkflowID: "wf_1", HourlyRate: 60, SecondsSavedPerExecution: 300,
					MonthlyCost: 100, Status: domain.AutomationStatusHealthy, ClientID: &clientID},
				{WorkflowID: "wf_2", HourlyRate: 120, SecondsSavedPerExecution: 60,
					Status: domain.AutomationStatusPaused},
			}, nil
		},
		countsFn: func(ctx context.Context, from, to time.Time) ([]domain.WorkflowCount, error) {
			if from.Day() == 1 {
				// month-to-date window
				return []domain.WorkflowCount{
					{WorkflowID: "wf_1", Total: 110, Successes: 100},
					{WorkflowID: "wf_2", Total: 10, Successes: 10},
					{WorkflowID: "wf_unlinked", Total: 5, Successes: 0},
				}, nil
			}
			// today window
			return []domain.WorkflowCount{
				{WorkflowID: "wf_1", Total: 3, Successes: 3},
			}, nil
		},
	}

	stats, err := NewService(store).DashboardStats(ctx, now)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}

	// wf_1: 100 successes * 5.0; wf_2: 10 successes * 2.0
	if !almostEqual(stats.TotalSavings, 520) {
		t.Errorf("TotalSavings = %v, want 520", stats.TotalSavings)
	}
	// 100*300s + 10*60s = 30600s = 8.5h
	if !almostEqual(stats.TimeSavedHours, 8.5) {
		t.Errorf("TimeSavedHours = %v, want 8.5", stats.TimeSavedHours)
	}
	// 110 successes of 125 executions
	if !almostEqual(stats.EfficiencyScore, 88) {
		t.Errorf("EfficiencyScore = %v, want 88", stats.EfficiencyScore)
	}
	// 520 over 15 days, extrapolated to 31
	if !almostEqual(stats.InactionCost, 520.0/15*31) {
		t.Errorf("InactionCost = %v, want %v", stats.InactionCost, 520.0/15*31)
	}
	if stats.ActiveAutomations != 1 {
		t.Errorf("ActiveAutomations = %d, want 1", stats.ActiveAutomations)
	}
	if stats.ExecutionsToday != 3 {
		t.Errorf("ExecutionsToday = %d, want 3", stats.ExecutionsToday)
	}
}

func TestDashboardStats_NoExecutions(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := &mockReportStore{
		ratesFn: func(ctx context.Context) ([]domain.Automation, error) {
			return []domain.Automation{
				{WorkflowID: "wf_1", HourlyRate: 60, SecondsSavedPerExecution: 300,
					Status: domain.AutomationStatusHealthy},
			}, nil
		},
	}

	stats, err := NewService(store).DashboardStats(ctx, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.TotalSavings != 0 || stats.EfficiencyScore != 0 || stats.ExecutionsToday != 0 {
		t.Errorf("empty month should produce zeroes, got %+v", stats)
	}
	if stats.ActiveAutomations != 1 {
		t.Errorf("ActiveAutomations = %d, want 1", stats.ActiveAutomations)
	}
}

func TestMonthlySavings_AllClients(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := &mockReportStore{
		ratesFn: func(ctx context.Context) ([]domain.Automation, error) {
			return []domain.Automation{
				{WorkflowID: "wf_1", HourlyRate: 60, SecondsSavedPerExecution: 300},
			}, nil
		},
		countsFn: func(ctx context.Context, from, to time.Time) ([]domain.WorkflowCount, error) {
			return []domain.WorkflowCount{
				{WorkflowID: "wf_1", Total: 10, Successes: 8},
			}, nil
		},
	}

	buckets, err := NewService(store).MonthlySavings(ctx, 2026, time.March, nil)
	if err != nil {
		t.Fatalf("MonthlySavings: %v", err)
	}
	if len(buckets) != 6 {
		t.Fatalf("expected 6 buckets for March 2026, got %d", len(buckets))
	}
	if buckets[0].WeekLabel != "W1" || buckets[5].WeekLabel != "W6" {
		t.Errorf("labels should run W1..W6, got %q..%q", buckets[0].WeekLabel, buckets[5].WeekLabel)
	}
	for _, b := range buckets {
		if b.ExecutionsCount != 10 {
			t.Errorf("%s: ExecutionsCount = %d, want 10", b.WeekLabel, b.ExecutionsCount)
		}
		if !almostEqual(b.MoneySaved, 40) {
			t.Errorf("%s: MoneySaved = %v, want 40", b.WeekLabel, b.MoneySaved)
		}
	}
	// One count query per bucket.
	if len(store.countCalls) != 6 {
		t.Errorf("expected 6 count queries, got %d", len(store.countCalls))
	}
}

func TestMonthlySavings_ClientFilter(t *testing.T) {
	ctx := testutil.TestContext(t)
	mine := testutil.MustParseUUID("33333333-3333-3333-3333-333333333333")
	other := testutil.MustParseUUID("44444444-4444-4444-4444-444444444444")

	store := &mockReportStore{
		ratesFn: func(ctx context.Context) ([]domain.Automation, error) {
			return []domain.Automation{
				{WorkflowID: "wf_mine", HourlyRate: 60, SecondsSavedPerExecution: 300, ClientID: &mine},
				{WorkflowID: "wf_other", HourlyRate: 600, SecondsSavedPerExecution: 600, ClientID: &other},
			}, nil
		},
		countsFn: func(ctx context.Context, from, to time.Time) ([]domain.WorkflowCount, error) {
			return []domain.WorkflowCount{
				{WorkflowID: "wf_mine", Total: 4, Successes: 4},
				{WorkflowID: "wf_other", Total: 100, Successes: 100},
			}, nil
		},
	}

	buckets, err := NewService(store).MonthlySavings(ctx, 2026, time.June, &mine)
	if err != nil {
		t.Fatalf("MonthlySavings: %v", err)
	}
	for _, b := range buckets {
		if b.ExecutionsCount != 4 {
			t.Errorf("%s: other client's executions leaked into count: %d", b.WeekLabel, b.ExecutionsCount)
		}
		if !almostEqual(b.MoneySaved, 20) {
			t.Errorf("%s: MoneySaved = %v, want 20", b.WeekLabel, b.MoneySaved)
		}
	}
}

func TestMonthlySavings_StoreError(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := &mockReportStore{
		countsFn: func(ctx context.Context, from, to time.Time) ([]domain.WorkflowCount, error) {
			return nil, errors.New("query failed")
		},
	}

	if _, err := NewService(store).MonthlySavings(ctx, 2026, time.March, nil); err == nil {
		t.Error("expected store error to propagate")
	}
}
