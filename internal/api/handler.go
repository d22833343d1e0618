// Package api exposes the webhook ingestion endpoint and the management HTTP
// surface for clients, automations, keys, and reports.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/WujsST/roi-sheet/internal/auth"
	"github.com/WujsST/roi-sheet/internal/domain"
	"github.com/WujsST/roi-sheet/internal/ingest"
	"github.com/WujsST/roi-sheet/internal/metrics"
)

// Pagination defaults and limits.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// defaultErrorWindow bounds GET /api/executions/errors when no hours
// parameter is given.
const defaultErrorWindowHours = 24

// Store is the management persistence surface.
type Store interface {
	CreateClient(ctx context.Context, client domain.Client, automationIDs []uuid.UUID) error
	ListClients(ctx context.Context) ([]domain.Client, error)
	UpdateClient(ctx context.Context, id uuid.UUID, upd domain.ClientUpdate) error
	DeleteClient(ctx context.Context, id uuid.UUID) error
	AssignAutomations(ctx context.Context, clientID uuid.UUID, automationIDs []uuid.UUID) error

	CreateAutomations(ctx context.Context, automations []domain.Automation) error
	ListAutomations(ctx context.Context) ([]domain.Automation, error)
	UpdateAutomation(ctx context.Context, id uuid.UUID, upd domain.AutomationUpdate) error
	ListUnnamedAutomations(ctx context.Context) ([]domain.Automation, error)
	ListUnlinkedWorkflows(ctx context.Context) ([]domain.UnlinkedWorkflow, error)

	ListExecutions(ctx context.Context, limit int) ([]domain.ExecutionLog, error)
	ListErrorExecutions(ctx context.Context, since time.Time, limit int) ([]domain.ExecutionLog, error)
}

// KeyValidator resolves presented key material to the owning account.
type KeyValidator interface {
	Validate(ctx context.Context, raw string) (auth.Identity, error)
}

// KeyIssuer creates and lists API keys.
type KeyIssuer interface {
	Issue(ctx context.Context, accountID uuid.UUID) (string, domain.APIKey, error)
	List(ctx context.Context, accountID uuid.UUID) ([]domain.APIKey, error)
}

// ExecutionRecorder persists validated execution reports.
type ExecutionRecorder interface {
	Record(ctx context.Context, p ingest.Payload, accountID *uuid.UUID) (ingest.Result, error)
}

// StatsProvider computes aggregated savings and dashboard figures.
type StatsProvider interface {
	DashboardStats(ctx context.Context, now time.Time) (domain.DashboardStats, error)
	MonthlySavings(ctx context.Context, year int, month time.Month, clientID *uuid.UUID) ([]domain.WeeklySavings, error)
}

// AnalyticsSink receives recorded executions for short-lived counters.
// Calls are best-effort; failures are logged and never fail a request.
type AnalyticsSink interface {
	RecordExecution(ctx context.Context, exec domain.Execution) error
}

// HealthChecker provides database health status for the /health endpoint.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	store     Store
	recorder  ExecutionRecorder
	keys      KeyValidator
	issuer    KeyIssuer
	stats     StatsProvider
	accountID uuid.UUID // single-tenant for now
	db        HealthChecker
	metrics   metrics.Sink
	analytics AnalyticsSink

	maxBodyBytes int64
	now          func() time.Time
}

func NewHandler(store Store, recorder ExecutionRecorder, keys KeyValidator, accountID uuid.UUID) *Handler {
	return &Handler{
		store:        store,
		recorder:     recorder,
		keys:         keys,
		accountID:    accountID,
		metrics:      metrics.NewNoopSink(),
		maxBodyBytes: 1 << 20,
		now:          time.Now,
	}
}

// WithIssuer enables the /api/keys endpoints.
func (h *Handler) WithIssuer(issuer KeyIssuer) *Handler {
	h.issuer = issuer
	return h
}

// WithStats enables the /api/stats endpoints.
func (h *Handler) WithStats(stats StatsProvider) *Handler {
	h.stats = stats
	return h
}

// WithHealthChecker sets the database health checker for verbose /health responses.
func (h *Handler) WithHealthChecker(db HealthChecker) *Handler {
	h.db = db
	return h
}

// WithMetrics sets the metrics sink. Defaults to a no-op sink.
func (h *Handler) WithMetrics(sink metrics.Sink) *Handler {
	h.metrics = sink
	return h
}

// WithAnalytics sets the best-effort analytics sink.
func (h *Handler) WithAnalytics(sink AnalyticsSink) *Handler {
	h.analytics = sink
	return h
}

// WithMaxBodyBytes overrides the webhook request body limit.
func (h *Handler) WithMaxBodyBytes(n int64) *Handler {
	h.maxBodyBytes = n
	return h
}

// WithClock overrides the time source, for tests.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/health" && r.Method == http.MethodGet:
		h.health(w, r)

	case path == "/api/webhook/execution" && r.Method == http.MethodPost:
		h.ingestExecution(w, r)

	case path == "/api/webhook/execution" && r.Method == http.MethodGet:
		h.webhookDoc(w, r)

	case path == "/api/clients" && r.Method == http.MethodPost:
		h.createClient(w, r)

	case path == "/api/clients" && r.Method == http.MethodGet:
		h.listClients(w, r)

	case strings.HasPrefix(path, "/api/clients/") && strings.HasSuffix(path, "/automations") && r.Method == http.MethodPost:
		h.assignAutomations(w, r)

	case strings.HasPrefix(path, "/api/clients/") && r.Method == http.MethodPatch:
		h.updateClient(w, r)

	case strings.HasPrefix(path, "/api/clients/") && r.Method == http.MethodDelete:
		h.deleteClient(w, r)

	case path == "/api/automations" && r.Method == http.MethodPost:
		h.createAutomations(w, r)

	case path == "/api/automations" && r.Method == http.MethodGet:
		h.listAutomations(w, r)

	case path == "/api/automations/unlinked" && r.Method == http.MethodGet:
		h.listUnlinkedWorkflows(w, r)

	case path == "/api/automations/unnamed" && r.Method == http.MethodGet:
		h.listUnnamedAutomations(w, r)

	case strings.HasPrefix(path, "/api/automations/") && r.Method == http.MethodPatch:
		h.updateAutomation(w, r)

	case path == "/api/executions" && r.Method == http.MethodGet:
		h.listExecutions(w, r)

	case path == "/api/executions/errors" && r.Method == http.MethodGet:
		h.listErrorExecutions(w, r)

	case path == "/api/keys" && r.Method == http.MethodPost:
		h.issueKey(w, r)

	case path == "/api/keys" && r.Method == http.MethodGet:
		h.listKeys(w, r)

	case path == "/api/stats/dashboard" && r.Method == http.MethodGet:
		h.dashboardStats(w, r)

	case path == "/api/stats/savings/monthly" && r.Method == http.MethodGet:
		h.monthlySavings(w, r)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "true"

	if !verbose || h.db == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}

	resp := HealthResponse{
		Status:     "ok",
		Components: make(map[string]string),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Components["database"] = "unhealthy: " + err.Error()
	} else {
		resp.Components["database"] = "healthy"
	}

	statusCode := http.StatusOK
	if resp.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, resp)
}

// ingestExecution is the webhook endpoint. Authentication happens before the
// body is read, so an unauthenticated sender learns nothing about the schema.
func (h *Handler) ingestExecution(w http.ResponseWriter, r *http.Request) {
	start := h.now()

	rawKey := r.Header.Get("X-API-Key")
	if rawKey == "" {
		h.metrics.AuthFailure(metrics.AuthReasonMissingHeader)
		h.metrics.IngestCompleted(metrics.OutcomeUnauthorized, time.Since(start))
		writeError(w, http.StatusUnauthorized, "API key required")
		return
	}

	identity, err := h.keys.Validate(r.Context(), rawKey)
	if err != nil {
		if errors.Is(err, auth.ErrKeyNotFound) {
			h.metrics.AuthFailure(metrics.AuthReasonInvalidKey)
			h.metrics.IngestCompleted(metrics.OutcomeUnauthorized, time.Since(start))
			writeError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
		log.Printf("api: key validation error: %v", err)
		h.metrics.IngestCompleted(metrics.OutcomeError, time.Since(start))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.IngestCompleted(metrics.OutcomeInvalid, time.Since(start))

		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "validation failed",
				Details: []FieldError{{Field: typeErr.Field, Message: "unexpected type, want " + typeErr.Type.String()}},
			})
			return
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if fieldErrs := validateWebhook(req); len(fieldErrs) > 0 {
		h.metrics.ValidationRejected(len(fieldErrs))
		h.metrics.IngestCompleted(metrics.OutcomeInvalid, time.Since(start))
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{Error: "validation failed", Details: fieldErrs})
		return
	}

	payload := ingest.Payload{
		WorkflowID:      req.WorkflowID,
		ExecutionID:     req.ExecutionID,
		Status:          domain.ExecutionStatus(req.Status),
		Platform:        domain.Platform(req.Platform),
		StartedAt:       parseTimePtr(req.StartedAt),
		FinishedAt:      parseTimePtr(req.FinishedAt),
		ExecutionTimeMS: req.ExecutionTimeMS,
		Metadata:        req.Metadata,
	}

	accountID := identity.AccountID
	result, err := h.recorder.Record(r.Context(), payload, &accountID)
	if err != nil {
		log.Printf("api: record execution error: %v", err)
		h.metrics.IngestCompleted(metrics.OutcomeError, time.Since(start))
		writeError(w, http.StatusInternalServerError, "failed to record execution")
		return
	}

	if result.Duplicate {
		h.metrics.IngestCompleted(metrics.OutcomeDuplicate, time.Since(start))
		writeJSON(w, http.StatusOK, WebhookResponse{
			Success:     true,
			Message:     "execution already recorded (idempotent)",
			ExecutionID: result.Execution.ExecutionID,
		})
		return
	}

	h.metrics.ExecutionRecorded(string(result.Execution.Platform), string(result.Execution.Status))
	h.metrics.IngestCompleted(metrics.OutcomeCreated, time.Since(start))

	if h.analytics != nil {
		if err := h.analytics.RecordExecution(r.Context(), result.Execution); err != nil {
			log.Printf("api: analytics record error: %v", err)
		}
	}

	exec := executionResponse(domain.ExecutionLog{Execution: result.Execution})
	writeJSON(w, http.StatusCreated, WebhookResponse{
		Success:     true,
		Message:     "execution recorded",
		ExecutionID: result.Execution.ExecutionID,
		WorkflowID:  result.Execution.WorkflowID,
		RecordedAt:  formatTime(result.Execution.CreatedAt),
		Execution:   &exec,
	})
}

// webhookDoc documents the webhook contract for senders probing the URL.
func (h *Handler) webhookDoc(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":     "ROI Sheet Webhook API",
		"version":  "2.0.0",
		"status":   "ok",
		"endpoint": "/api/webhook/execution",
		"methods":  []string{"POST"},
		"headers": map[string]string{
			"Content-Type": "application/json",
			"X-API-Key":    "your API key",
		},
		"body": map[string]string{
			"workflow_id":       "string (required)",
			"status":            "success | error | running | waiting (required)",
			"execution_id":      "string (optional, generated when absent)",
			"platform":          "n8n | zapier | make | retell | custom | other (optional)",
			"started_at":        "RFC 3339 timestamp (optional)",
			"finished_at":       "RFC 3339 timestamp (optional)",
			"execution_time_ms": "positive integer (optional)",
			"metadata":          "object (optional)",
		},
		"example": map[string]any{
			"workflow_id":       "test_workflow_123",
			"status":            "success",
			"execution_id":      "exec-001",
			"platform":          "n8n",
			"started_at":        "2026-02-05T10:00:00Z",
			"finished_at":       "2026-02-05T10:00:05Z",
			"execution_time_ms": 5000,
			"metadata":          map[string]any{"items_processed": 10},
		},
	})
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if !h.decode(w, r, &req) {
		return
	}

	if fieldErrs := validateCreateClient(req); len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{Error: "validation failed", Details: fieldErrs})
		return
	}

	automationIDs := make([]uuid.UUID, len(req.AutomationIDs))
	for i, id := range req.AutomationIDs {
		automationIDs[i] = uuid.MustParse(id) // validated above
	}

	client := domain.Client{
		ID:               uuid.New(),
		Name:             req.Name,
		Industry:         req.Industry,
		Logo:             req.Logo,
		Status:           domain.ClientStatusActive,
		AutomationsCount: len(automationIDs),
		CreatedAt:        h.now().UTC(),
	}

	if err := h.store.CreateClient(r.Context(), client, automationIDs); err != nil {
		log.Printf("api: create client error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create client")
		return
	}

	writeJSON(w, http.StatusCreated, clientResponse(client))
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.ListClients(r.Context())
	if err != nil {
		log.Printf("api: list clients error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list clients")
		return
	}

	resp := ListClientsResponse{Clients: make([]ClientResponse, len(clients))}
	for i, c := range clients {
		resp.Clients[i] = clientResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r.URL.Path, "clients")
	if !ok {
		return
	}

	var req UpdateClientRequest
	if !h.decode(w, r, &req) {
		return
	}

	if fieldErrs := validateUpdateClient(req); len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{Error: "validation failed", Details: fieldErrs})
		return
	}

	upd := domain.ClientUpdate{
		Name:     req.Name,
		Industry: req.Industry,
		Logo:     req.Logo,
	}
	if req.Status != nil {
		status := domain.ClientStatus(*req.Status)
		upd.Status = &status
	}

	if err := h.store.UpdateClient(r.Context(), id, upd); err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "client not found")
			return
		}
		log.Printf("api: update client error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update client")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r.URL.Path, "clients")
	if !ok {
		return
	}

	if err := h.store.DeleteClient(r.Context(), id); err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "client not found")
			return
		}
		log.Printf("api: delete client error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete client")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) assignAutomations(w http.ResponseWriter, r *http.Request) {
	// Path: /api/clients/{id}/automations
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || parts[1] != "clients" || parts[3] != "automations" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	clientID, err := uuid.Parse(parts[2])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	var req struct {
		AutomationIDs []string `json:"automation_ids"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.AutomationIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: "automation_ids", Message: "at least one automation id is required"}},
		})
		return
	}

	automationIDs := make([]uuid.UUID, len(req.AutomationIDs))
	for i, id := range req.AutomationIDs {
		parsed, err := uuid.Parse(id)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "validation failed",
				Details: []FieldError{{Field: "automation_ids", Message: "must be valid uuids"}},
			})
			return
		}
		automationIDs[i] = parsed
	}

	if err := h.store.AssignAutomations(r.Context(), clientID, automationIDs); err != nil {
		log.Printf("api: assign automations error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to assign automations")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createAutomations(w http.ResponseWriter, r *http.Request) {
	var req CreateAutomationsRequest
	if !h.decode(w, r, &req) {
		return
	}

	if fieldErrs := validateAutomations(req); len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{Error: "validation failed", Details: fieldErrs})
		return
	}

	now := h.now().UTC()
	automations := make([]domain.Automation, len(req.Automations))
	for i, a := range req.Automations {
		automation := domain.Automation{
			ID:         uuid.New(),
			Name:       a.Name,
			Icon:       a.Icon,
			WorkflowID: a.WorkflowID,
			Status:     domain.AutomationStatusHealthy,
			CreatedAt:  now,
		}
		if a.ClientID != "" {
			clientID := uuid.MustParse(a.ClientID) // validated above
			automation.ClientID = &clientID
		}
		if a.HourlyRate != nil {
			automation.HourlyRate = *a.HourlyRate
		}
		if a.SecondsSavedPerExecution != nil {
			automation.SecondsSavedPerExecution = *a.SecondsSavedPerExecution
		}
		if a.MonthlyCost != nil {
			automation.MonthlyCost = *a.MonthlyCost
		}
		automations[i] = automation
	}

	if err := h.store.CreateAutomations(r.Context(), automations); err != nil {
		log.Printf("api: create automations error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create automations")
		return
	}

	resp := ListAutomationsResponse{Automations: make([]AutomationResponse, len(automations))}
	for i, a := range automations {
		resp.Automations[i] = automationResponse(a)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) listAutomations(w http.ResponseWriter, r *http.Request) {
	automations, err := h.store.ListAutomations(r.Context())
	if err != nil {
		log.Printf("api: list automations error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list automations")
		return
	}
	h.writeAutomations(w, automations)
}

func (h *Handler) listUnnamedAutomations(w http.ResponseWriter, r *http.Request) {
	automations, err := h.store.ListUnnamedAutomations(r.Context())
	if err != nil {
		log.Printf("api: list unnamed automations error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list automations")
		return
	}
	h.writeAutomations(w, automations)
}

func (h *Handler) writeAutomations(w http.ResponseWriter, automations []domain.Automation) {
	resp := ListAutomationsResponse{Automations: make([]AutomationResponse, len(automations))}
	for i, a := range automations {
		resp.Automations[i] = automationResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) updateAutomation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r.URL.Path, "automations")
	if !ok {
		return
	}

	var req UpdateAutomationRequest
	if !h.decode(w, r, &req) {
		return
	}

	if fieldErrs := validateUpdateAutomation(req); len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{Error: "validation failed", Details: fieldErrs})
		return
	}

	upd := domain.AutomationUpdate{
		Name:                     req.Name,
		Icon:                     req.Icon,
		HourlyRate:               req.HourlyRate,
		SecondsSavedPerExecution: req.SecondsSavedPerExecution,
		MonthlyCost:              req.MonthlyCost,
	}
	if req.ClientID != nil {
		var clientID uuid.NullUUID
		if *req.ClientID != "" {
			clientID = uuid.NullUUID{UUID: uuid.MustParse(*req.ClientID), Valid: true} // validated above
		}
		upd.ClientID = &clientID
	}
	if req.Status != nil {
		status := domain.AutomationStatus(*req.Status)
		upd.Status = &status
	}

	if err := h.store.UpdateAutomation(r.Context(), id, upd); err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "automation not found")
			return
		}
		log.Printf("api: update automation error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update automation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listUnlinkedWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := h.store.ListUnlinkedWorkflows(r.Context())
	if err != nil {
		log.Printf("api: list unlinked workflows error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list unlinked workflows")
		return
	}

	resp := ListUnlinkedWorkflowsResponse{Workflows: make([]UnlinkedWorkflowResponse, len(workflows))}
	for i, uw := range workflows {
		resp.Workflows[i] = UnlinkedWorkflowResponse{
			WorkflowID:     uw.WorkflowID,
			ExecutionCount: uw.ExecutionCount,
			LastSeen:       formatTime(uw.LastSeen),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) listExecutions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	executions, err := h.store.ListExecutions(r.Context(), limit)
	if err != nil {
		log.Printf("api: list executions error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list executions")
		return
	}
	writeExecutions(w, executions)
}

func (h *Handler) listErrorExecutions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hours := defaultErrorWindowHours
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		hours, err = strconv.Atoi(hoursStr)
		if err != nil || hours <= 0 {
			writeError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
	}

	since := h.now().UTC().Add(-time.Duration(hours) * time.Hour)
	executions, err := h.store.ListErrorExecutions(r.Context(), since, limit)
	if err != nil {
		log.Printf("api: list error executions error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list executions")
		return
	}
	writeExecutions(w, executions)
}

func writeExecutions(w http.ResponseWriter, executions []domain.ExecutionLog) {
	resp := ListExecutionsResponse{Executions: make([]ExecutionResponse, len(executions))}
	for i, e := range executions {
		resp.Executions[i] = executionResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) issueKey(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	raw, key, err := h.issuer.Issue(r.Context(), h.accountID)
	if err != nil {
		log.Printf("api: issue key error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to issue key")
		return
	}

	writeJSON(w, http.StatusCreated, IssueKeyResponse{
		Key:       raw,
		ID:        key.ID.String(),
		Prefix:    key.Prefix,
		CreatedAt: formatTime(key.CreatedAt),
	})
}

func (h *Handler) listKeys(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	keys, err := h.issuer.List(r.Context(), h.accountID)
	if err != nil {
		log.Printf("api: list keys error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list keys")
		return
	}

	resp := ListKeysResponse{Keys: make([]KeyResponse, len(keys))}
	for i, k := range keys {
		resp.Keys[i] = KeyResponse{
			ID:         k.ID.String(),
			Prefix:     k.Prefix,
			Active:     k.Active,
			CreatedAt:  formatTime(k.CreatedAt),
			LastUsedAt: formatTimePtr(k.LastUsedAt),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) dashboardStats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	stats, err := h.stats.DashboardStats(r.Context(), h.now().UTC())
	if err != nil {
		log.Printf("api: dashboard stats error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) monthlySavings(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	now := h.now().UTC()
	year := now.Year()
	month := now.Month()

	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		parsed, err := strconv.Atoi(yearStr)
		if err != nil || parsed < 2000 || parsed > 2200 {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = parsed
	}
	if monthStr := r.URL.Query().Get("month"); monthStr != "" {
		parsed, err := strconv.Atoi(monthStr)
		if err != nil || parsed < 1 || parsed > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = time.Month(parsed)
	}

	var clientID *uuid.UUID
	if clientStr := r.URL.Query().Get("client_id"); clientStr != "" {
		parsed, err := uuid.Parse(clientStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid client id")
			return
		}
		clientID = &parsed
	}

	weeks, err := h.stats.MonthlySavings(r.Context(), year, month, clientID)
	if err != nil {
		log.Printf("api: monthly savings error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute savings")
		return
	}

	writeJSON(w, http.StatusOK, MonthlySavingsResponse{Year: year, Month: int(month), Weeks: weeks})
}

// decode reads a management request body. Reports the failure itself and
// returns false when the body is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// pathID extracts the trailing uuid from /api/{resource}/{id}.
func pathID(w http.ResponseWriter, path, resource string) (uuid.UUID, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "api" || parts[1] != resource {
		writeError(w, http.StatusNotFound, "not found")
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.UUID{}, false
	}
	return id, true
}

func parseLimit(r *http.Request) (int, error) {
	limit := DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return 0, err
		}
		if parsed < 0 {
			return 0, strconv.ErrRange
		}
		if parsed > MaxLimit {
			return 0, &limitExceededError{max: MaxLimit}
		}
		if parsed > 0 {
			limit = parsed
		}
	}
	return limit, nil
}

type limitExceededError struct {
	max int
}

func (e *limitExceededError) Error() string {
	return "limit exceeds maximum of " + strconv.Itoa(e.max)
}

func clientResponse(c domain.Client) ClientResponse {
	return ClientResponse{
		ID:               c.ID.String(),
		Name:             c.Name,
		Industry:         c.Industry,
		Logo:             c.Logo,
		Status:           string(c.Status),
		AutomationsCount: c.AutomationsCount,
		SavedAmount:      c.SavedAmount,
		ROIPercentage:    c.ROIPercentage,
		CreatedAt:        formatTime(c.CreatedAt),
	}
}

func automationResponse(a domain.Automation) AutomationResponse {
	resp := AutomationResponse{
		ID:                       a.ID.String(),
		Name:                     a.Name,
		Icon:                     a.Icon,
		WorkflowID:               a.WorkflowID,
		Status:                   string(a.Status),
		HourlyRate:               a.HourlyRate,
		SecondsSavedPerExecution: a.SecondsSavedPerExecution,
		MonthlyCost:              a.MonthlyCost,
		CreatedAt:                formatTime(a.CreatedAt),
	}
	if a.ClientID != nil {
		resp.ClientID = a.ClientID.String()
	}
	return resp
}

func executionResponse(e domain.ExecutionLog) ExecutionResponse {
	return ExecutionResponse{
		ID:              e.ID.String(),
		WorkflowID:      e.WorkflowID,
		WorkflowName:    e.WorkflowName,
		ExecutionID:     e.ExecutionID,
		Status:          string(e.Status),
		Platform:        string(e.Platform),
		StartedAt:       formatTime(e.StartedAt),
		FinishedAt:      formatTimePtr(e.FinishedAt),
		ExecutionTimeMS: e.ExecutionTimeMS,
		Metadata:        e.Metadata,
		CreatedAt:       formatTime(e.CreatedAt),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: json encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func parseTimePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
