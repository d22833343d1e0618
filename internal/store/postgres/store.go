// Package postgres is the single concrete persistence layer. It implements
// the narrow store interfaces declared by the packages that consume it.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/WujsST/roi-sheet/internal/auth"
	"github.com/WujsST/roi-sheet/internal/domain"
	"github.com/WujsST/roi-sheet/internal/ingest"
	"github.com/WujsST/roi-sheet/internal/report"
)

// Store implements the ingest, auth, report, and api store interfaces using
// PostgreSQL.
type Store struct {
	db        *sql.DB
	opTimeout time.Duration
}

// New creates a store on the given connection. opTimeout bounds every
// database operation; zero disables the per-operation deadline.
func New(db *sql.DB, opTimeout time.Duration) *Store {
	return &Store{db: db, opTimeout: opTimeout}
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

// InsertExecution inserts a new execution record.
// Returns ingest.ErrDuplicateExecution if execution_id already exists.
func (s *Store) InsertExecution(ctx context.Context, exec domain.Execution) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	metadata, err := json.Marshal(exec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal execution metadata: %w", err)
	}

	var accountID uuid.NullUUID
	if exec.AccountID != nil {
		accountID = uuid.NullUUID{UUID: *exec.AccountID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, queryInsertExecution,
		exec.ID,
		exec.WorkflowID,
		exec.ExecutionID,
		string(exec.Status),
		string(exec.Platform),
		exec.StartedAt,
		exec.FinishedAt,
		exec.ExecutionTimeMS,
		metadata,
		accountID,
		exec.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ingest.ErrDuplicateExecution
		}
		return err
	}
	return nil
}

// ListExecutions returns the most recent executions with their workflow names,
// newest first.
func (s *Store) ListExecutions(ctx context.Context, limit int) ([]domain.ExecutionLog, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, queryListExecutions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExecutionLogs(rows)
}

// ListErrorExecutions returns failed executions created at or after since,
// newest first.
func (s *Store) ListErrorExecutions(ctx context.Context, since time.Time, limit int) ([]domain.ExecutionLog, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, queryListErrorExecutions, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExecutionLogs(rows)
}

func scanExecutionLogs(rows *sql.Rows) ([]domain.ExecutionLog, error) {
	var result []domain.ExecutionLog
	for rows.Next() {
		var (
			entry      domain.ExecutionLog
			status     string
			platform   string
			finishedAt sql.NullTime
			execTimeMS sql.NullInt64
			metadata   []byte
			accountID  uuid.NullUUID
		)

		err := rows.Scan(
			&entry.ID,
			&entry.WorkflowID,
			&entry.ExecutionID,
			&status,
			&platform,
			&entry.StartedAt,
			&finishedAt,
			&execTimeMS,
			&metadata,
			&accountID,
			&entry.CreatedAt,
			&entry.WorkflowName,
		)
		if err != nil {
			return nil, err
		}

		entry.Status = domain.ExecutionStatus(status)
		entry.Platform = domain.Platform(platform)
		if finishedAt.Valid {
			t := finishedAt.Time
			entry.FinishedAt = &t
		}
		if execTimeMS.Valid {
			ms := execTimeMS.Int64
			entry.ExecutionTimeMS = &ms
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal execution metadata: %w", err)
			}
		}
		if accountID.Valid {
			id := accountID.UUID
			entry.AccountID = &id
		}
		result = append(result, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ExecutionCounts returns per-workflow execution totals for executions started
// in [from, to).
func (s *Store) ExecutionCounts(ctx context.Context, from, to time.Time) ([]domain.WorkflowCount, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, queryExecutionCounts, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkflowCount
	for rows.Next() {
		var wc domain.WorkflowCount
		if err := rows.Scan(&wc.WorkflowID, &wc.Total, &wc.Successes); err != nil {
			return nil, err
		}
		result = append(result, wc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetActiveKeyByDigest returns the active key matching the digest.
// Returns auth.ErrKeyNotFound when no active key matches.
func (s *Store) GetActiveKeyByDigest(ctx context.Context, digest string) (domain.APIKey, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	key, err := scanKey(s.db.QueryRowContext(ctx, queryGetActiveKeyByDigest, digest))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.APIKey{}, auth.ErrKeyNotFound
		}
		return domain.APIKey{}, err
	}
	return key, nil
}

// TouchKey records the last use of a key.
func (s *Store) TouchKey(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, queryTouchKey, id, usedAt)
	return err
}

// IssueKey deactivates the account's prior keys and inserts the new one in a
// single transaction, so at most one key per account is active.
func (s *Store) IssueKey(ctx context.Context, key domain.APIKey) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, queryDeactivateAccountKeys, key.AccountID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, queryInsertKey,
		key.ID,
		key.AccountID,
		key.Digest,
		key.Prefix,
		key.Active,
		key.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListKeys returns the account's keys, newest first.
func (s *Store) ListKeys(ctx context.Context, accountID uuid.UUID) ([]domain.APIKey, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, queryListKeys, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.APIKey
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, key)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKey(row rowScanner) (domain.APIKey, error) {
	var (
		key        domain.APIKey
		lastUsedAt sql.NullTime
	)
	err := row.Scan(
		&key.ID,
		&key.AccountID,
		&key.Digest,
		&key.Prefix,
		&key.Active,
		&key.CreatedAt,
		&lastUsedAt,
	)
	if err != nil {
		return domain.APIKey{}, err
	}
	if lastUsedAt.Valid {
		t := lastUsedAt.Time
		key.LastUsedAt = &t
	}
	return key, nil
}

// CreateClient inserts a client and assigns the given automations to it in a
// transaction.
func (s *Store) CreateClient(ctx context.Context, client domain.Client, automationIDs []uuid.UUID) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, queryInsertClient,
		client.ID,
		client.Name,
		client.Industry,
		client.Logo,
		string(client.Status),
		client.AutomationsCount,
		client.SavedAmount,
		client.ROIPercentage,
		client.CreatedAt,
	)
	if err != nil {
		return err
	}

	if len(automationIDs) > 0 {
		if _, err := tx.ExecContext(ctx, queryAssignAutomations, client.ID, pq.Array(automationIDs)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, queryRefreshClientAutomationCount, client.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListClients returns all clients ordered by saved amount, highest first.
func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, queryListClients)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Client
	for rows.Next() {
		var (
			client domain.Client
			status string
		)
		err := rows.Scan(
			&client.ID,
			&client.Name,
			&client.Industry,
			&client.Logo,
			&status,
			&client.AutomationsCount,
			&client.SavedAmount,
			&client.ROIPercentage,
			&client.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		client.Status = domain.ClientStatus(status)
		result = append(result, client)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateClient applies the non-nil fields of upd to the client.
// Returns sql.ErrNoRows if the client does not exist.
func (s *Store) UpdateClient(ctx context.Context, id uuid.UUID, upd domain.ClientUpdate) error {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Industry != nil {
		add("industry", *upd.Industry)
	}
	if upd.Logo != nil {
		add("logo", *upd.Logo)
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE clients SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// DeleteClient removes a client, detaching its automations first.
// Returns sql.ErrNoRows if the client does not exist.
func (s *Store) DeleteClient(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, queryUnassignClientAutomations, id); err != nil {
		return err
	}

	var deletedID uuid.UUID
	if err := tx.QueryRowContext(ctx, queryDeleteClient, id).Scan(&deletedID); err != nil {
		return err
	}

	return tx.Commit()
}

// AssignAutomations attaches the given automations to a client and refreshes
// the client's automation count, in a transaction.
func (s *Store) AssignAutomations(ctx context.Context, clientID uuid.UUID, automationIDs []uuid.UUID) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, queryAssignAutomations, clientID, pq.Array(automationIDs)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, queryRefreshClientAutomationCount, clientID); err != nil {
		return err
	}

	return tx.Commit()
}

// CreateAutomations inserts the given automations and refreshes the automation
// counts of affected clients, in a transaction.
func (s *Store) CreateAutomations(ctx context.Context, automations []domain.Automation) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	clients := make(map[uuid.UUID]struct{})
	for _, a := range automations {
		var clientID uuid.NullUUID
		if a.ClientID != nil {
			clientID = uuid.NullUUID{UUID: *a.ClientID, Valid: true}
			clients[*a.ClientID] = struct{}{}
		}

		_, err := tx.ExecContext(ctx, queryInsertAutomation,
			a.ID,
			a.Name,
			a.Icon,
			clientID,
			a.WorkflowID,
			string(a.Status),
			a.HourlyRate,
			a.SecondsSavedPerExecution,
			a.MonthlyCost,
			a.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	for clientID := range clients {
		if _, err := tx.ExecContext(ctx, queryRefreshClientAutomationCount, clientID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListAutomations returns all automations, newest first.
func (s *Store) ListAutomations(ctx context.Context) ([]domain.Automation, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, queryListAutomations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAutomations(rows)
}

// AutomationRates returns the billing configuration of every automation.
func (s *Store) AutomationRates(ctx context.Context) ([]domain.Automation, error) {
	return s.ListAutomations(ctx)
}

// ListUnnamedAutomations returns automations that have not been named yet.
func (s *Store) ListUnnamedAutomations(ctx context.Context) ([]domain.Automation, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, queryListUnnamedAutomations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAutomations(rows)
}

func scanAutomations(rows *sql.Rows) ([]domain.Automation, error) {
	var result []domain.Automation
	for rows.Next() {
		var (
			a        domain.Automation
			name     sql.NullString
			clientID uuid.NullUUID
			status   string
		)
		err := rows.Scan(
			&a.ID,
			&name,
			&a.Icon,
			&clientID,
			&a.WorkflowID,
			&status,
			&a.HourlyRate,
			&a.SecondsSavedPerExecution,
			&a.MonthlyCost,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		a.Name = name.String
		if clientID.Valid {
			id := clientID.UUID
			a.ClientID = &id
		}
		a.Status = domain.AutomationStatus(status)
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateAutomation applies the non-nil fields of upd to the automation.
// Returns sql.ErrNoRows if the automation does not exist.
func (s *Store) UpdateAutomation(ctx context.Context, id uuid.UUID, upd domain.AutomationUpdate) error {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Icon != nil {
		add("icon", *upd.Icon)
	}
	if upd.ClientID != nil {
		add("client_id", *upd.ClientID)
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}
	if upd.HourlyRate != nil {
		add("hourly_rate", *upd.HourlyRate)
	}
	if upd.SecondsSavedPerExecution != nil {
		add("seconds_saved_per_execution", *upd.SecondsSavedPerExecution)
	}
	if upd.MonthlyCost != nil {
		add("monthly_cost", *upd.MonthlyCost)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE automations SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ListUnlinkedWorkflows returns workflow ids seen in executions that no
// automation claims yet, most recently seen first.
func (s *Store) ListUnlinkedWorkflows(ctx context.Context) ([]domain.UnlinkedWorkflow, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, queryListUnlinkedWorkflows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.UnlinkedWorkflow
	for rows.Next() {
		var uw domain.UnlinkedWorkflow
		if err := rows.Scan(&uw.WorkflowID, &uw.ExecutionCount, &uw.LastSeen); err != nil {
			return nil, err
		}
		result = append(result, uw)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// isDuplicateKeyError checks if the error is a PostgreSQL unique violation.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	// PostgreSQL unique violation error code is 23505
	errStr := err.Error()
	return strings.Contains(errStr, "23505") ||
		strings.Contains(errStr, "unique constraint") ||
		strings.Contains(errStr, "duplicate key")
}

// Compile-time interface assertions
var (
	_ ingest.Store     = (*Store)(nil)
	_ auth.Store       = (*Store)(nil)
	_ auth.IssuerStore = (*Store)(nil)
	_ report.Store     = (*Store)(nil)
)
