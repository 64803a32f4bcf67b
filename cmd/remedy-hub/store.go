// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bureau-foundation/remedy/lib/clock"
	"github.com/bureau-foundation/remedy/lib/schema"
	"github.com/bureau-foundation/remedy/lib/sqlitepool"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

var (
	// ErrDuplicateAction is returned by CreateAction when the host
	// already has a non-terminal action with the same dedupe key.
	ErrDuplicateAction = errors.New("duplicate action")

	// ErrNotFound is returned when no action or host matches the
	// given identifier.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when an action's current
	// status does not permit the requested transition.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// storeSchema is the action database schema. Timestamps are Unix
// nanoseconds. The maintenance table holds a single row carrying the
// fleet-wide maintenance flag.
const storeSchema = `
	CREATE TABLE IF NOT EXISTS actions (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		host         TEXT NOT NULL,
		action_type  TEXT NOT NULL,
		command      TEXT NOT NULL,
		parameters   TEXT,
		dedupe_key   TEXT NOT NULL,
		status       TEXT NOT NULL,
		origin       TEXT NOT NULL,
		created_at   INTEGER NOT NULL,
		executed_at  INTEGER,
		completed_at INTEGER,
		exit_code    INTEGER,
		stdout       TEXT NOT NULL DEFAULT '',
		stderr       TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_actions_host_status ON actions(host, status);
	CREATE INDEX IF NOT EXISTS idx_actions_host_dedupe ON actions(host, dedupe_key);
	CREATE INDEX IF NOT EXISTS idx_actions_status_created ON actions(status, created_at);

	CREATE TABLE IF NOT EXISTS hosts (
		name           TEXT PRIMARY KEY,
		first_seen     INTEGER NOT NULL,
		last_seen      INTEGER NOT NULL,
		maintenance    INTEGER NOT NULL DEFAULT 0,
		cpu_percent    INTEGER NOT NULL DEFAULT 0,
		memory_used_mb INTEGER NOT NULL DEFAULT 0,
		uptime_seconds INTEGER NOT NULL DEFAULT 0,
		agent_version  TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS maintenance (
		id     INTEGER PRIMARY KEY CHECK (id = 1),
		global INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO maintenance (id, global) VALUES (1, 0);
`

// Store is the durable record of remediation actions and the hosts
// they target. It owns every status transition: callers request
// transitions through its methods and never write status or result
// fields directly.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// StoreConfig configures a Store.
type StoreConfig struct {
	// Path is the SQLite database file path. The file and its
	// schema are created on first open.
	Path string

	// PoolSize is the connection pool size. Zero selects the
	// sqlitepool default.
	PoolSize int

	// Clock supplies timestamps for lifecycle transitions.
	// Required.
	Clock clock.Clock

	// Logger receives store diagnostics. Required.
	Logger *slog.Logger
}

// OpenStore opens the action database at the configured path,
// creating the file and schema as needed.
func OpenStore(cfg StoreConfig) (*Store, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("action store: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("action store: Logger is required")
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, storeSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("action store: %w", err)
	}

	return &Store{
		pool:   pool,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}, nil
}

// Close releases the store's database connections.
func (s *Store) Close() error {
	return s.pool.Close()
}

// NewAction describes an action to be created. The store assigns the
// id and creation time.
type NewAction struct {
	// Host names the target host. Required.
	Host string

	// Type is the remediation operation. Required and must be a
	// known action type.
	Type schema.ActionType

	// Command is the fully resolved command string the agent will
	// run. Required.
	Command string

	// Parameters are the operation parameters the command was
	// resolved from, kept for display.
	Parameters map[string]string

	// DedupeKey is the action's logical identity on its host. At
	// most one non-terminal action may exist per (host, dedupe
	// key). Required.
	DedupeKey string

	// Origin records whether an operator or an automated trigger
	// requested the action.
	Origin schema.ActionOrigin

	// Status is the initial status assigned by the approval gate.
	// Must be pending or approved.
	Status schema.ActionStatus
}

func (n NewAction) validate() error {
	if n.Host == "" {
		return fmt.Errorf("host is required")
	}
	if !n.Type.IsKnown() {
		return fmt.Errorf("unknown action type %q", n.Type)
	}
	if n.Command == "" {
		return fmt.Errorf("command is required")
	}
	if n.DedupeKey == "" {
		return fmt.Errorf("dedupe key is required")
	}
	if !n.Origin.IsKnown() {
		return fmt.Errorf("unknown origin %q", n.Origin)
	}
	if n.Status != schema.StatusPending && n.Status != schema.StatusApproved {
		return fmt.Errorf("initial status must be pending or approved, got %q", n.Status)
	}
	return nil
}

// CreateAction records a new action. It returns ErrDuplicateAction
// without writing anything when the host already has a pending,
// approved, or executing action with the same dedupe key. The check
// and the insert share one immediate transaction, so two concurrent
// creations of the same operation cannot both land.
func (s *Store) CreateAction(ctx context.Context, newAction NewAction) (created schema.Action, err error) {
	if err := newAction.validate(); err != nil {
		return schema.Action{}, fmt.Errorf("action store: create: %w", err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schema.Action{}, fmt.Errorf("action store: create: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return schema.Action{}, fmt.Errorf("action store: create: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	var duplicate bool
	err = sqlitex.Execute(conn,
		`SELECT 1 FROM actions
		 WHERE host = ? AND dedupe_key = ? AND status IN (?, ?, ?)
		 LIMIT 1`,
		&sqlitex.ExecOptions{
			Args: []any{
				newAction.Host,
				newAction.DedupeKey,
				string(schema.StatusPending),
				string(schema.StatusApproved),
				string(schema.StatusExecuting),
			},
			ResultFunc: func(*sqlite.Stmt) error {
				duplicate = true
				return nil
			},
		})
	if err != nil {
		return schema.Action{}, fmt.Errorf("action store: create: check dedupe: %w", err)
	}
	if duplicate {
		return schema.Action{}, fmt.Errorf("action store: host %s already has a non-terminal %q action: %w",
			newAction.Host, newAction.DedupeKey, ErrDuplicateAction)
	}

	parametersJSON, err := encodeParameters(newAction.Parameters)
	if err != nil {
		return schema.Action{}, fmt.Errorf("action store: create: %w", err)
	}

	createdAt := s.clock.Now()
	err = sqlitex.Execute(conn,
		`INSERT INTO actions
		 (host, action_type, command, parameters, dedupe_key, status, origin, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				newAction.Host,
				string(newAction.Type),
				newAction.Command,
				parametersJSON,
				newAction.DedupeKey,
				string(newAction.Status),
				string(newAction.Origin),
				createdAt.UnixNano(),
			},
		})
	if err != nil {
		return schema.Action{}, fmt.Errorf("action store: create: insert: %w", err)
	}

	return schema.Action{
		ID:         conn.LastInsertRowID(),
		Host:       newAction.Host,
		Type:       newAction.Type,
		Command:    newAction.Command,
		Parameters: newAction.Parameters,
		DedupeKey:  newAction.DedupeKey,
		Status:     newAction.Status,
		Origin:     newAction.Origin,
		CreatedAt:  createdAt,
	}, nil
}

// GetAction returns the action with the given id, or ErrNotFound.
func (s *Store) GetAction(ctx context.Context, id int64) (schema.Action, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schema.Action{}, fmt.Errorf("action store: get action %d: %w", id, err)
	}
	defer s.pool.Put(conn)

	action, found, err := fetchAction(conn, id)
	if err != nil {
		return schema.Action{}, fmt.Errorf("action store: get action %d: %w", id, err)
	}
	if !found {
		return schema.Action{}, fmt.Errorf("action store: action %d: %w", id, ErrNotFound)
	}
	return action, nil
}

// ActionFilter narrows ListActions. Zero-valued fields match
// everything.
type ActionFilter struct {
	// Host restricts results to actions targeting one host.
	Host string

	// Status restricts results to one lifecycle status.
	Status schema.ActionStatus

	// Limit caps the number of rows returned. Zero means 100.
	Limit int
}

// ListActions returns actions matching the filter, newest first.
func (s *Store) ListActions(ctx context.Context, filter ActionFilter) ([]schema.Action, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("action store: list actions: %w", err)
	}
	defer s.pool.Put(conn)

	var conditions []string
	var args []any

	if filter.Host != "" {
		conditions = append(conditions, "host = ?")
		args = append(args, filter.Host)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT " + actionColumns + " FROM actions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	var actions []schema.Action
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			action, err := scanAction(stmt)
			if err != nil {
				return err
			}
			actions = append(actions, action)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("action store: list actions: %w", err)
	}
	return actions, nil
}

// ApproveAction transitions a pending action to approved. Any other
// current status yields ErrInvalidTransition; a missing id yields
// ErrNotFound.
func (s *Store) ApproveAction(ctx context.Context, id int64) (schema.Action, error) {
	return s.transition(ctx, id, "approve", map[schema.ActionStatus]schema.ActionStatus{
		schema.StatusPending: schema.StatusApproved,
	})
}

// RejectAction transitions a pending or approved action to rejected.
// Executing and terminal actions cannot be rejected.
func (s *Store) RejectAction(ctx context.Context, id int64) (schema.Action, error) {
	return s.transition(ctx, id, "reject", map[schema.ActionStatus]schema.ActionStatus{
		schema.StatusPending:  schema.StatusRejected,
		schema.StatusApproved: schema.StatusRejected,
	})
}

// transition applies one of the operator-driven status moves. The
// allowed map gives the permitted current statuses and the status
// each moves to.
func (s *Store) transition(ctx context.Context, id int64, verb string, allowed map[schema.ActionStatus]schema.ActionStatus) (action schema.Action, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schema.Action{}, fmt.Errorf("action store: %s action %d: %w", verb, id, err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return schema.Action{}, fmt.Errorf("action store: %s action %d: begin transaction: %w", verb, id, err)
	}
	defer endTransaction(&err)

	action, found, err := fetchAction(conn, id)
	if err != nil {
		return schema.Action{}, fmt.Errorf("action store: %s action %d: %w", verb, id, err)
	}
	if !found {
		return schema.Action{}, fmt.Errorf("action store: %s action %d: %w", verb, id, ErrNotFound)
	}

	next, ok := allowed[action.Status]
	if !ok {
		return schema.Action{}, fmt.Errorf("action store: %s action %d: status is %s: %w",
			verb, id, action.Status, ErrInvalidTransition)
	}

	err = sqlitex.Execute(conn,
		`UPDATE actions SET status = ? WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{string(next), id}})
	if err != nil {
		return schema.Action{}, fmt.Errorf("action store: %s action %d: %w", verb, id, err)
	}

	action.Status = next
	return action, nil
}

// NextApproved returns the host's oldest approved action, by creation
// time with the lower id breaking ties, or nil when none is queued.
func (s *Store) NextApproved(ctx context.Context, host string) (*schema.Action, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("action store: next approved for %s: %w", host, err)
	}
	defer s.pool.Put(conn)

	action, found, err := oldestApproved(conn, host)
	if err != nil {
		return nil, fmt.Errorf("action store: next approved for %s: %w", host, err)
	}
	if !found {
		return nil, nil
	}
	return &action, nil
}

// MarkExecuting transitions an approved action to executing and
// records the dispatch time. Marking an action that is already
// executing is a no-op, so a retried dispatch cannot fail. Any other
// status yields ErrInvalidTransition.
func (s *Store) MarkExecuting(ctx context.Context, id int64) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("action store: mark executing %d: %w", id, err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("action store: mark executing %d: begin transaction: %w", id, err)
	}
	defer endTransaction(&err)

	action, found, err := fetchAction(conn, id)
	if err != nil {
		return fmt.Errorf("action store: mark executing %d: %w", id, err)
	}
	if !found {
		return fmt.Errorf("action store: mark executing %d: %w", id, ErrNotFound)
	}

	switch action.Status {
	case schema.StatusExecuting:
		return nil
	case schema.StatusApproved:
		if err := markExecuting(conn, id, s.clock.Now()); err != nil {
			return fmt.Errorf("action store: mark executing %d: %w", id, err)
		}
		return nil
	default:
		return fmt.Errorf("action store: mark executing %d: status is %s: %w",
			id, action.Status, ErrInvalidTransition)
	}
}

// DispatchNext atomically selects and claims the host's next command.
// Inside a single immediate transaction it checks for an executing
// action (the host's execution slot), and when the slot is free
// promotes the oldest approved action to executing. It returns nil
// when the slot is occupied or nothing is approved. Concurrent calls
// for the same host can never claim the same action twice or put two
// actions in flight.
func (s *Store) DispatchNext(ctx context.Context, host string) (dispatched *schema.Action, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("action store: dispatch for %s: %w", host, err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("action store: dispatch for %s: begin transaction: %w", host, err)
	}
	defer endTransaction(&err)

	var slotOccupied bool
	err = sqlitex.Execute(conn,
		`SELECT 1 FROM actions WHERE host = ? AND status = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			Args: []any{host, string(schema.StatusExecuting)},
			ResultFunc: func(*sqlite.Stmt) error {
				slotOccupied = true
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("action store: dispatch for %s: check slot: %w", host, err)
	}
	if slotOccupied {
		return nil, nil
	}

	action, found, err := oldestApproved(conn, host)
	if err != nil {
		return nil, fmt.Errorf("action store: dispatch for %s: %w", host, err)
	}
	if !found {
		return nil, nil
	}

	executedAt := s.clock.Now()
	if err := markExecuting(conn, action.ID, executedAt); err != nil {
		return nil, fmt.Errorf("action store: dispatch for %s: claim action %d: %w", host, action.ID, err)
	}

	action.Status = schema.StatusExecuting
	action.ExecutedAt = &executedAt
	return &action, nil
}

// ResultOutcome reports what ApplyResult did with a command result.
type ResultOutcome int

const (
	// ResultApplied means the result finalized an executing action.
	ResultApplied ResultOutcome = iota

	// ResultUnknown means no action with the reported id exists.
	ResultUnknown

	// ResultStale means the action exists but is not executing, so
	// the result was dropped. Duplicate deliveries of an already
	// applied result land here.
	ResultStale
)

func (o ResultOutcome) String() string {
	switch o {
	case ResultApplied:
		return "applied"
	case ResultUnknown:
		return "unknown"
	case ResultStale:
		return "stale"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ApplyResult finalizes an executing action with the result its host
// reported: exit code, captured output truncated to the storage
// bound, and completion time. Exit code zero completes the action,
// anything else fails it. Results for unknown or non-executing
// actions are reported through the outcome, never as an error, so a
// heartbeat carrying garbage still succeeds.
func (s *Store) ApplyResult(ctx context.Context, result schema.CommandResult) (outcome ResultOutcome, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("action store: apply result for %d: %w", result.ActionID, err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, fmt.Errorf("action store: apply result for %d: begin transaction: %w", result.ActionID, err)
	}
	defer endTransaction(&err)

	action, found, err := fetchAction(conn, result.ActionID)
	if err != nil {
		return 0, fmt.Errorf("action store: apply result for %d: %w", result.ActionID, err)
	}
	if !found {
		return ResultUnknown, nil
	}
	if action.Status != schema.StatusExecuting {
		return ResultStale, nil
	}

	status := schema.StatusFailed
	if result.ExitCode == 0 {
		status = schema.StatusCompleted
	}

	completedAt := result.CompletedAt
	if completedAt.IsZero() {
		completedAt = s.clock.Now()
	}

	// executed_at is normally set at dispatch; the agent's report
	// fills it only if dispatch somehow left it empty.
	var executedAt any
	if !result.ExecutedAt.IsZero() {
		executedAt = result.ExecutedAt.UnixNano()
	}

	err = sqlitex.Execute(conn,
		`UPDATE actions
		 SET status = ?, exit_code = ?, stdout = ?, stderr = ?,
		     completed_at = ?, executed_at = COALESCE(executed_at, ?)
		 WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{
				string(status),
				result.ExitCode,
				schema.TruncateOutput(result.Stdout),
				schema.TruncateOutput(result.Stderr),
				completedAt.UnixNano(),
				executedAt,
				result.ActionID,
			},
		})
	if err != nil {
		return 0, fmt.Errorf("action store: apply result for %d: %w", result.ActionID, err)
	}
	return ResultApplied, nil
}

// ReapStuckExecuting fails every executing action dispatched more
// than olderThan ago, recording exit code -1 and a diagnostic stderr.
// It returns the actions it failed.
func (s *Store) ReapStuckExecuting(ctx context.Context, olderThan time.Duration) (reaped []schema.Action, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("action store: reap: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("action store: reap: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	now := s.clock.Now()
	cutoff := now.Add(-olderThan)

	err = sqlitex.Execute(conn,
		"SELECT "+actionColumns+` FROM actions
		 WHERE status = ? AND executed_at IS NOT NULL AND executed_at <= ?
		 ORDER BY id`,
		&sqlitex.ExecOptions{
			Args: []any{string(schema.StatusExecuting), cutoff.UnixNano()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				action, err := scanAction(stmt)
				if err != nil {
					return err
				}
				reaped = append(reaped, action)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("action store: reap: select stuck: %w", err)
	}

	exitCode := -1
	for i := range reaped {
		err = sqlitex.Execute(conn,
			`UPDATE actions
			 SET status = ?, exit_code = ?, stderr = ?, completed_at = ?
			 WHERE id = ?`,
			&sqlitex.ExecOptions{
				Args: []any{
					string(schema.StatusFailed),
					exitCode,
					reapedStderr,
					now.UnixNano(),
					reaped[i].ID,
				},
			})
		if err != nil {
			return nil, fmt.Errorf("action store: reap action %d: %w", reaped[i].ID, err)
		}

		reaped[i].Status = schema.StatusFailed
		reaped[i].ExitCode = &exitCode
		reaped[i].Stderr = reapedStderr
		completedAt := now
		reaped[i].CompletedAt = &completedAt

		s.logger.Warn("failed stuck executing action",
			"action_id", reaped[i].ID,
			"host", reaped[i].Host,
			"dispatched_at", *reaped[i].ExecutedAt)
	}
	return reaped, nil
}

// reapedStderr is stored on actions failed by the grace-period reaper.
const reapedStderr = "host never reported a result"

// UpsertHostSeen records a heartbeat from the named host: it
// registers the host on first contact and refreshes last_seen and the
// reported metrics afterwards. The maintenance flag and first_seen
// survive updates.
func (s *Store) UpsertHostSeen(ctx context.Context, name string, metrics schema.MetricsSnapshot) (schema.Host, error) {
	if name == "" {
		return schema.Host{}, fmt.Errorf("action store: upsert host: name is required")
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schema.Host{}, fmt.Errorf("action store: upsert host %s: %w", name, err)
	}
	defer s.pool.Put(conn)

	now := s.clock.Now()
	err = sqlitex.Execute(conn,
		`INSERT INTO hosts
		 (name, first_seen, last_seen, cpu_percent, memory_used_mb, uptime_seconds, agent_version)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		     last_seen      = excluded.last_seen,
		     cpu_percent    = excluded.cpu_percent,
		     memory_used_mb = excluded.memory_used_mb,
		     uptime_seconds = excluded.uptime_seconds,
		     agent_version  = excluded.agent_version`,
		&sqlitex.ExecOptions{
			Args: []any{
				name,
				now.UnixNano(),
				now.UnixNano(),
				metrics.CPUPercent,
				metrics.MemoryUsedMB,
				metrics.UptimeSeconds,
				metrics.AgentVersion,
			},
		})
	if err != nil {
		return schema.Host{}, fmt.Errorf("action store: upsert host %s: %w", name, err)
	}

	host, found, err := fetchHost(conn, name)
	if err != nil {
		return schema.Host{}, fmt.Errorf("action store: upsert host %s: %w", name, err)
	}
	if !found {
		return schema.Host{}, fmt.Errorf("action store: upsert host %s: row missing after upsert", name)
	}
	return host, nil
}

// GetHost returns the named host, or ErrNotFound.
func (s *Store) GetHost(ctx context.Context, name string) (schema.Host, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schema.Host{}, fmt.Errorf("action store: get host %s: %w", name, err)
	}
	defer s.pool.Put(conn)

	host, found, err := fetchHost(conn, name)
	if err != nil {
		return schema.Host{}, fmt.Errorf("action store: get host %s: %w", name, err)
	}
	if !found {
		return schema.Host{}, fmt.Errorf("action store: host %s: %w", name, ErrNotFound)
	}
	return host, nil
}

// ListHosts returns every registered host ordered by name. Health is
// not stored; callers derive it from LastSeen.
func (s *Store) ListHosts(ctx context.Context) ([]schema.Host, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("action store: list hosts: %w", err)
	}
	defer s.pool.Put(conn)

	var hosts []schema.Host
	err = sqlitex.Execute(conn,
		"SELECT "+hostColumns+" FROM hosts ORDER BY name",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				hosts = append(hosts, scanHost(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("action store: list hosts: %w", err)
	}
	return hosts, nil
}

// SetHostMaintenance sets the named host's maintenance flag. The host
// must have registered through a heartbeat; otherwise ErrNotFound.
func (s *Store) SetHostMaintenance(ctx context.Context, name string, enabled bool) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("action store: set maintenance for %s: %w", name, err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("action store: set maintenance for %s: begin transaction: %w", name, err)
	}
	defer endTransaction(&err)

	_, found, err := fetchHost(conn, name)
	if err != nil {
		return fmt.Errorf("action store: set maintenance for %s: %w", name, err)
	}
	if !found {
		return fmt.Errorf("action store: host %s: %w", name, ErrNotFound)
	}

	err = sqlitex.Execute(conn,
		`UPDATE hosts SET maintenance = ? WHERE name = ?`,
		&sqlitex.ExecOptions{Args: []any{boolToInt(enabled), name}})
	if err != nil {
		return fmt.Errorf("action store: set maintenance for %s: %w", name, err)
	}
	return nil
}

// SetGlobalMaintenance sets the fleet-wide maintenance flag.
func (s *Store) SetGlobalMaintenance(ctx context.Context, enabled bool) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("action store: set global maintenance: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE maintenance SET global = ? WHERE id = 1`,
		&sqlitex.ExecOptions{Args: []any{boolToInt(enabled)}})
	if err != nil {
		return fmt.Errorf("action store: set global maintenance: %w", err)
	}
	return nil
}

// GlobalMaintenance reports the fleet-wide maintenance flag.
func (s *Store) GlobalMaintenance(ctx context.Context) (bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("action store: global maintenance: %w", err)
	}
	defer s.pool.Put(conn)

	var enabled bool
	err = sqlitex.Execute(conn,
		`SELECT global FROM maintenance WHERE id = 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				enabled = stmt.ColumnInt(0) != 0
				return nil
			},
		})
	if err != nil {
		return false, fmt.Errorf("action store: global maintenance: %w", err)
	}
	return enabled, nil
}

// MaintenanceActive reports whether actions for the named host are
// auto-approved right now: the host's own flag or the fleet-wide
// flag. A host that has never heartbeated has no flag of its own, so
// only the fleet-wide flag applies.
func (s *Store) MaintenanceActive(ctx context.Context, host string) (bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("action store: maintenance for %s: %w", host, err)
	}
	defer s.pool.Put(conn)

	var active bool
	err = sqlitex.Execute(conn,
		`SELECT (SELECT global FROM maintenance WHERE id = 1)
		     OR COALESCE((SELECT maintenance FROM hosts WHERE name = ?), 0)`,
		&sqlitex.ExecOptions{
			Args: []any{host},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				active = stmt.ColumnInt(0) != 0
				return nil
			},
		})
	if err != nil {
		return false, fmt.Errorf("action store: maintenance for %s: %w", host, err)
	}
	return active, nil
}

// actionColumns is the column list every action query selects, in
// scanAction's order.
const actionColumns = "id, host, action_type, command, parameters, dedupe_key, " +
	"status, origin, created_at, executed_at, completed_at, exit_code, stdout, stderr"

// scanAction reads one action row.
func scanAction(stmt *sqlite.Stmt) (schema.Action, error) {
	// Columns: id(0), host(1), action_type(2), command(3),
	// parameters(4), dedupe_key(5), status(6), origin(7),
	// created_at(8), executed_at(9), completed_at(10),
	// exit_code(11), stdout(12), stderr(13)

	action := schema.Action{
		ID:        stmt.ColumnInt64(0),
		Host:      stmt.ColumnText(1),
		Type:      schema.ActionType(stmt.ColumnText(2)),
		Command:   stmt.ColumnText(3),
		DedupeKey: stmt.ColumnText(5),
		Status:    schema.ActionStatus(stmt.ColumnText(6)),
		Origin:    schema.ActionOrigin(stmt.ColumnText(7)),
		CreatedAt: time.Unix(0, stmt.ColumnInt64(8)).UTC(),
		Stdout:    stmt.ColumnText(12),
		Stderr:    stmt.ColumnText(13),
	}

	if !stmt.ColumnIsNull(4) {
		if err := json.Unmarshal([]byte(stmt.ColumnText(4)), &action.Parameters); err != nil {
			return schema.Action{}, fmt.Errorf("unmarshal parameters for action %d: %w", action.ID, err)
		}
	}
	if !stmt.ColumnIsNull(9) {
		executedAt := time.Unix(0, stmt.ColumnInt64(9)).UTC()
		action.ExecutedAt = &executedAt
	}
	if !stmt.ColumnIsNull(10) {
		completedAt := time.Unix(0, stmt.ColumnInt64(10)).UTC()
		action.CompletedAt = &completedAt
	}
	if !stmt.ColumnIsNull(11) {
		exitCode := stmt.ColumnInt(11)
		action.ExitCode = &exitCode
	}
	return action, nil
}

// fetchAction loads one action by id on an already-held connection.
func fetchAction(conn *sqlite.Conn, id int64) (action schema.Action, found bool, err error) {
	err = sqlitex.Execute(conn,
		"SELECT "+actionColumns+" FROM actions WHERE id = ?",
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				action, err = scanAction(stmt)
				found = err == nil
				return err
			},
		})
	if err != nil {
		return schema.Action{}, false, err
	}
	return action, found, nil
}

// oldestApproved loads the host's oldest approved action, creation
// time then id ascending.
func oldestApproved(conn *sqlite.Conn, host string) (action schema.Action, found bool, err error) {
	err = sqlitex.Execute(conn,
		"SELECT "+actionColumns+` FROM actions
		 WHERE host = ? AND status = ?
		 ORDER BY created_at ASC, id ASC
		 LIMIT 1`,
		&sqlitex.ExecOptions{
			Args: []any{host, string(schema.StatusApproved)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				action, err = scanAction(stmt)
				found = err == nil
				return err
			},
		})
	if err != nil {
		return schema.Action{}, false, err
	}
	return action, found, nil
}

// markExecuting writes the approved-to-executing transition on an
// already-held connection.
func markExecuting(conn *sqlite.Conn, id int64, executedAt time.Time) error {
	return sqlitex.Execute(conn,
		`UPDATE actions SET status = ?, executed_at = ? WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{string(schema.StatusExecuting), executedAt.UnixNano(), id},
		})
}

// hostColumns is the column list every host query selects, in
// scanHost's order.
const hostColumns = "name, first_seen, last_seen, maintenance, " +
	"cpu_percent, memory_used_mb, uptime_seconds, agent_version"

// scanHost reads one host row.
func scanHost(stmt *sqlite.Stmt) schema.Host {
	return schema.Host{
		Name:        stmt.ColumnText(0),
		FirstSeen:   time.Unix(0, stmt.ColumnInt64(1)).UTC(),
		LastSeen:    time.Unix(0, stmt.ColumnInt64(2)).UTC(),
		Maintenance: stmt.ColumnInt(3) != 0,
		Metrics: schema.MetricsSnapshot{
			CPUPercent:    stmt.ColumnInt(4),
			MemoryUsedMB:  stmt.ColumnInt(5),
			UptimeSeconds: stmt.ColumnInt64(6),
			AgentVersion:  stmt.ColumnText(7),
		},
	}
}

// fetchHost loads one host by name on an already-held connection.
func fetchHost(conn *sqlite.Conn, name string) (host schema.Host, found bool, err error) {
	err = sqlitex.Execute(conn,
		"SELECT "+hostColumns+" FROM hosts WHERE name = ?",
		&sqlitex.ExecOptions{
			Args: []any{name},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				host = scanHost(stmt)
				found = true
				return nil
			},
		})
	if err != nil {
		return schema.Host{}, false, err
	}
	return host, found, nil
}

// encodeParameters serializes an action's parameter map for storage,
// NULL when empty.
func encodeParameters(parameters map[string]string) (any, error) {
	if len(parameters) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(parameters)
	if err != nil {
		return nil, fmt.Errorf("marshal parameters: %w", err)
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
