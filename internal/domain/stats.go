package domain

import "time"

// WorkflowCount is the per-workflow execution tally for a time range, as
// returned by the store's grouped count query.
type WorkflowCount struct {
	WorkflowID string
	Total      int
	Successes  int
}

// DashboardStats are the headline numbers on the dashboard, computed from
// execution counts and automation rates.
type DashboardStats struct {
	TotalSavings      float64 `json:"total_savings"`
	TimeSavedHours    float64 `json:"time_saved_hours"`
	EfficiencyScore   float64 `json:"efficiency_score"`
	InactionCost      float64 `json:"inaction_cost"`
	ActiveAutomations int     `json:"active_automations"`
	ExecutionsToday   int     `json:"total_executions_today"`
}

// WeeklySavings is one week bucket of the monthly savings chart.
type WeeklySavings struct {
	WeekLabel       string    `json:"week_label"`
	WeekStart       time.Time `json:"week_start"`
	ExecutionsCount int       `json:"executions_count"`
	MoneySaved      float64   `json:"money_saved"`
}
