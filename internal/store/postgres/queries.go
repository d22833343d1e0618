package postgres

const queryInsertExecution = `
INSERT INTO executions (id, workflow_id, execution_id, status, platform, started_at, finished_at, execution_time_ms, metadata, account_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

const queryListExecutions = `
SELECT
    e.id, e.workflow_id, e.execution_id, e.status, e.platform,
    e.started_at, e.finished_at, e.execution_time_ms, e.metadata,
    e.account_id, e.created_at,
    COALESCE(a.name, '')
FROM executions e
LEFT JOIN LATERAL (
    SELECT name FROM automations WHERE workflow_id = e.workflow_id LIMIT 1
) a ON true
ORDER BY e.created_at DESC
LIMIT $1
`

const queryListErrorExecutions = `
SELECT
    e.id, e.workflow_id, e.execution_id, e.status, e.platform,
    e.started_at, e.finished_at, e.execution_time_ms, e.metadata,
    e.account_id, e.created_at,
    COALESCE(a.name, '')
FROM executions e
LEFT JOIN LATERAL (
    SELECT name FROM automations WHERE workflow_id = e.workflow_id LIMIT 1
) a ON true
WHERE e.status = 'error'
  AND e.created_at >= $1
ORDER BY e.created_at DESC
LIMIT $2
`

const queryExecutionCounts = `
SELECT workflow_id,
       COUNT(*),
       COUNT(*) FILTER (WHERE status = 'success')
FROM executions
WHERE started_at >= $1
  AND started_at < $2
GROUP BY workflow_id
`

const queryGetActiveKeyByDigest = `
SELECT id, account_id, key_digest, key_prefix, is_active, created_at, last_used_at
FROM api_keys
WHERE key_digest = $1
  AND is_active = true
`

const queryTouchKey = `
UPDATE api_keys SET last_used_at = $2 WHERE id = $1
`

const queryDeactivateAccountKeys = `
UPDATE api_keys SET is_active = false WHERE account_id = $1 AND is_active = true
`

const queryInsertKey = `
INSERT INTO api_keys (id, account_id, key_digest, key_prefix, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

const queryListKeys = `
SELECT id, account_id, key_digest, key_prefix, is_active, created_at, last_used_at
FROM api_keys
WHERE account_id = $1
ORDER BY created_at DESC
`

const queryInsertClient = `
INSERT INTO clients (id, name, industry, logo, status, automations_count, saved_amount, roi_percentage, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

const queryListClients = `
SELECT id, name, industry, logo, status, automations_count, saved_amount, roi_percentage, created_at
FROM clients
ORDER BY saved_amount DESC
`

const queryDeleteClient = `
DELETE FROM clients WHERE id = $1 RETURNING id
`

const queryUnassignClientAutomations = `
UPDATE automations SET client_id = NULL WHERE client_id = $1
`

const queryAssignAutomations = `
UPDATE automations SET client_id = $1 WHERE id = ANY($2)
`

const queryRefreshClientAutomationCount = `
UPDATE clients
SET automations_count = (SELECT COUNT(*) FROM automations WHERE client_id = clients.id)
WHERE id = $1
`

const queryInsertAutomation = `
INSERT INTO automations (id, name, icon, client_id, workflow_id, status, hourly_rate, seconds_saved_per_execution, monthly_cost, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

const queryListAutomations = `
SELECT id, name, icon, client_id, workflow_id, status, hourly_rate, seconds_saved_per_execution, monthly_cost, created_at
FROM automations
ORDER BY created_at DESC
`

const queryListUnnamedAutomations = `
SELECT id, name, icon, client_id, workflow_id, status, hourly_rate, seconds_saved_per_execution, monthly_cost, created_at
FROM automations
WHERE name IS NULL OR name = ''
ORDER BY created_at DESC
`

const queryListUnlinkedWorkflows = `
SELECT e.workflow_id, COUNT(*), MAX(e.created_at)
FROM executions e
LEFT JOIN automations a ON a.workflow_id = e.workflow_id
WHERE a.id IS NULL
GROUP BY e.workflow_id
ORDER BY MAX(e.created_at) DESC
`
