package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MukeshR-prog/distributer/internal/types"
	"github.com/rs/zerolog"
)

// SQLiteStore implements Store on a single SQLite database. Groups and
// records live in their own tables; assignedCount is derived from the
// record rows on load so it can never drift from the data.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NewSQLiteStore opens (or creates) the database at path and runs the
// schema migrations.
func NewSQLiteStore(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// In-memory databases exist per connection; keep a single one so the
	// schema does not vanish between goroutines.
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info().Str("path", path).Msg("SQLite store initialized")
	return store, nil
}

// migrate runs database migrations
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE COLLATE NOCASE,
			mobile TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 1,
			assigned_tasks INTEGER NOT NULL DEFAULT 0,
			completed_tasks INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS distributions (
			id TEXT PRIMARY KEY,
			file_name TEXT NOT NULL,
			original_file_name TEXT NOT NULL,
			file_size INTEGER NOT NULL DEFAULT 0,
			total_records INTEGER NOT NULL,
			uploaded_by TEXT NOT NULL DEFAULT '',
			strategy TEXT NOT NULL,
			status TEXT NOT NULL,
			summary_agents INTEGER NOT NULL DEFAULT 0,
			summary_average REAL NOT NULL DEFAULT 0,
			summary_time_ms INTEGER NOT NULL DEFAULT 0,
			summary_min INTEGER NOT NULL DEFAULT 0,
			summary_max INTEGER NOT NULL DEFAULT 0,
			summary_variance INTEGER NOT NULL DEFAULT 0,
			summary_fairness REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS distribution_groups (
			distribution_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			agent_name TEXT NOT NULL,
			agent_email TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (distribution_id, agent_id),
			FOREIGN KEY (distribution_id) REFERENCES distributions(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			distribution_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			first_name TEXT NOT NULL,
			phone TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			assigned_at DATETIME NOT NULL,
			completed_at DATETIME,
			redistributed INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL,
			FOREIGN KEY (distribution_id) REFERENCES distributions(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_dist_agent ON records(distribution_id, agent_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_groups_agent ON distribution_groups(agent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_distributions_created ON distributions(created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateAgent(agent types.Agent) error {
	_, err := s.db.Exec(
		`INSERT INTO agents (id, name, email, mobile, is_active, assigned_tasks, completed_tasks, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.ID, agent.Name, agent.Email, agent.Mobile, agent.IsActive,
		agent.AssignedTasks, agent.CompletedTasks, agent.CreatedAt)
	if isUniqueViolation(err) {
		return types.ErrAgentExists
	}
	return err
}

func (s *SQLiteStore) GetAgent(id string) (*types.Agent, error) {
	var a types.Agent
	err := s.db.QueryRow(
		`SELECT id, name, email, mobile, is_active, assigned_tasks, completed_tasks, created_at
		 FROM agents WHERE id = ?`, id).Scan(
		&a.ID, &a.Name, &a.Email, &a.Mobile, &a.IsActive, &a.AssignedTasks, &a.CompletedTasks, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, types.ErrAgentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStore) ListAgents(includeInactive bool) ([]types.Agent, error) {
	query := `SELECT id, name, email, mobile, is_active, assigned_tasks, completed_tasks, created_at FROM agents`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := make([]types.Agent, 0)
	for rows.Next() {
		var a types.Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Mobile, &a.IsActive,
			&a.AssignedTasks, &a.CompletedTasks, &a.CreatedAt); err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (s *SQLiteStore) UpdateAgent(agent types.Agent) error {
	res, err := s.db.Exec(
		`UPDATE agents SET name = ?, email = ?, mobile = ?, is_active = ? WHERE id = ?`,
		agent.Name, agent.Email, agent.Mobile, agent.IsActive, agent.ID)
	if isUniqueViolation(err) {
		return types.ErrAgentExists
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrAgentNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteAgent(id string) error {
	res, err := s.db.Exec(`DELETE FROM agents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrAgentNotFound
	}
	return nil
}

// CreateDistribution writes the distribution, its groups, and its
// records in one transaction, incrementing each agent's assigned total
// alongside.
func (s *SQLiteStore) CreateDistribution(dist *types.Distribution) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	version := dist.Version
	if version == 0 {
		version = 1
	}

	_, err = tx.Exec(
		`INSERT INTO distributions (id, file_name, original_file_name, file_size, total_records, uploaded_by,
			strategy, status, summary_agents, summary_average, summary_time_ms, summary_min, summary_max,
			summary_variance, summary_fairness, created_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		dist.ID, dist.FileName, dist.OriginalFileName, dist.FileSize, dist.TotalRecords, dist.UploadedBy,
		string(dist.Strategy), string(dist.Status),
		dist.Summary.TotalAgentsAssigned, dist.Summary.AverageRecordsPerAgent, dist.Summary.DistributionTime,
		dist.Summary.MinRecordsAssigned, dist.Summary.MaxRecordsAssigned,
		dist.Summary.DistributionVariance, dist.Summary.FairnessScore,
		dist.CreatedAt, version)
	if err != nil {
		return fmt.Errorf("failed to insert distribution: %w", err)
	}

	for gi, g := range dist.Agents {
		if _, err := tx.Exec(
			`INSERT INTO distribution_groups (distribution_id, agent_id, agent_name, agent_email, position)
			 VALUES (?, ?, ?, ?, ?)`,
			dist.ID, g.AgentID, g.AgentName, g.AgentEmail, gi); err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		for ri, rec := range g.Records {
			if err := insertRecord(tx, dist.ID, g.AgentID, rec, ri); err != nil {
				return err
			}
		}

		if len(g.Records) > 0 {
			if _, err := tx.Exec(
				`UPDATE agents SET assigned_tasks = assigned_tasks + ? WHERE id = ?`,
				len(g.Records), g.AgentID); err != nil {
				return fmt.Errorf("failed to update agent totals: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Debug().
		Str("distribution_id", dist.ID).
		Int("records", dist.TotalRecords).
		Int("agents", len(dist.Agents)).
		Msg("distribution created")

	return nil
}

func insertRecord(tx *sql.Tx, distID, agentID string, rec types.Record, position int) error {
	_, err := tx.Exec(
		`INSERT INTO records (id, distribution_id, agent_id, first_name, phone, notes, status,
			assigned_at, completed_at, redistributed, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, distID, agentID, rec.FirstName, rec.Phone, rec.Notes, string(rec.Status),
		rec.AssignedAt, rec.CompletedAt, rec.Redistributed, position)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetDistribution(id string) (*types.Distribution, error) {
	return s.loadDistribution(s.db, id)
}

func (s *SQLiteStore) loadDistribution(q queryer, id string) (*types.Distribution, error) {
	var d types.Distribution
	var strategy, status string
	err := q.QueryRow(
		`SELECT id, file_name, original_file_name, file_size, total_records, uploaded_by, strategy, status,
			summary_agents, summary_average, summary_time_ms, summary_min, summary_max, summary_variance,
			summary_fairness, created_at, version
		 FROM distributions WHERE id = ?`, id).Scan(
		&d.ID, &d.FileName, &d.OriginalFileName, &d.FileSize, &d.TotalRecords, &d.UploadedBy, &strategy, &status,
		&d.Summary.TotalAgentsAssigned, &d.Summary.AverageRecordsPerAgent, &d.Summary.DistributionTime,
		&d.Summary.MinRecordsAssigned, &d.Summary.MaxRecordsAssigned, &d.Summary.DistributionVariance,
		&d.Summary.FairnessScore, &d.CreatedAt, &d.Version)
	if err == sql.ErrNoRows {
		return nil, types.ErrDistributionNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Strategy = types.Strategy(strategy)
	d.Status = types.DistributionStatus(status)

	groupRows, err := q.Query(
		`SELECT agent_id, agent_name, agent_email FROM distribution_groups
		 WHERE distribution_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer groupRows.Close()

	index := make(map[string]int)
	for groupRows.Next() {
		var g types.AgentGroup
		if err := groupRows.Scan(&g.AgentID, &g.AgentName, &g.AgentEmail); err != nil {
			return nil, err
		}
		g.Records = []types.Record{}
		index[g.AgentID] = len(d.Agents)
		d.Agents = append(d.Agents, g)
	}
	if err := groupRows.Err(); err != nil {
		return nil, err
	}

	recordRows, err := q.Query(
		`SELECT id, agent_id, first_name, phone, notes, status, assigned_at, completed_at, redistributed
		 FROM records WHERE distribution_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer recordRows.Close()

	for recordRows.Next() {
		var rec types.Record
		var agentID, recStatus string
		var completedAt sql.NullTime
		if err := recordRows.Scan(&rec.ID, &agentID, &rec.FirstName, &rec.Phone, &rec.Notes,
			&recStatus, &rec.AssignedAt, &completedAt, &rec.Redistributed); err != nil {
			return nil, err
		}
		rec.Status = types.RecordStatus(recStatus)
		if completedAt.Valid {
			t := completedAt.Time
			rec.CompletedAt = &t
		}
		gi, ok := index[agentID]
		if !ok {
			continue
		}
		d.Agents[gi].Records = append(d.Agents[gi].Records, rec)
	}
	if err := recordRows.Err(); err != nil {
		return nil, err
	}

	for i := range d.Agents {
		d.Agents[i].AssignedCount = len(d.Agents[i].Records)
	}

	return &d, nil
}

func (s *SQLiteStore) ListDistributions(opts ListOptions) ([]types.Distribution, int, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if opts.Strategy != "" {
		where = append(where, "strategy = ?")
		args = append(args, opts.Strategy)
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, opts.Status)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM distributions"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT id FROM distributions" + clause + " ORDER BY created_at DESC, id"
	if opts.PageSize > 0 {
		page := opts.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", opts.PageSize, (page-1)*opts.PageSize)
	}

	ids, err := s.queryIDs(query, args...)
	if err != nil {
		return nil, 0, err
	}

	dists := make([]types.Distribution, 0, len(ids))
	for _, id := range ids {
		d, err := s.loadDistribution(s.db, id)
		if err != nil {
			return nil, 0, err
		}
		dists = append(dists, *d)
	}
	return dists, total, nil
}

func (s *SQLiteStore) ListDistributionsByAgent(agentID string) ([]types.Distribution, error) {
	ids, err := s.queryIDs(
		`SELECT d.id FROM distributions d
		 JOIN distribution_groups g ON g.distribution_id = d.id
		 WHERE g.agent_id = ? ORDER BY d.created_at DESC, d.id`, agentID)
	if err != nil {
		return nil, err
	}

	dists := make([]types.Distribution, 0, len(ids))
	for _, id := range ids {
		d, err := s.loadDistribution(s.db, id)
		if err != nil {
			return nil, err
		}
		dists = append(dists, *d)
	}
	return dists, nil
}

func (s *SQLiteStore) queryIDs(query string, args ...any) ([]string, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateRecordStatus mutates one record and applies the matching counter
// change in the same transaction. The counter update is an in-place SQL
// increment, never a read-modify-write.
func (s *SQLiteStore) UpdateRecordStatus(distID, agentID, recordID string, status types.RecordStatus, notes *string) (*types.Record, error) {
	if _, err := types.ParseRecordStatus(string(status)); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var version int64
	err = tx.QueryRow(`SELECT version FROM distributions WHERE id = ?`, distID).Scan(&version)
	if err == sql.ErrNoRows {
		return nil, types.ErrDistributionNotFound
	}
	if err != nil {
		return nil, err
	}

	var one int
	err = tx.QueryRow(`SELECT 1 FROM distribution_groups WHERE distribution_id = ? AND agent_id = ?`,
		distID, agentID).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotAssigned
	}
	if err != nil {
		return nil, err
	}

	var rec types.Record
	var prevStatus string
	var completedAt sql.NullTime
	err = tx.QueryRow(
		`SELECT id, first_name, phone, notes, status, assigned_at, completed_at, redistributed
		 FROM records WHERE id = ? AND distribution_id = ? AND agent_id = ?`,
		recordID, distID, agentID).Scan(
		&rec.ID, &rec.FirstName, &rec.Phone, &rec.Notes, &prevStatus, &rec.AssignedAt, &completedAt, &rec.Redistributed)
	if err == sql.ErrNoRows {
		return nil, types.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	prev := types.RecordStatus(prevStatus)
	rec.Status = status
	if notes != nil {
		rec.Notes = *notes
	}
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}

	delta := 0
	switch {
	case prev != types.RecordCompleted && status == types.RecordCompleted:
		now := time.Now().UTC()
		rec.CompletedAt = &now
		delta = 1
	case prev == types.RecordCompleted && status != types.RecordCompleted:
		rec.CompletedAt = nil
		delta = -1
	}

	if _, err := tx.Exec(
		`UPDATE records SET status = ?, notes = ?, completed_at = ? WHERE id = ?`,
		string(rec.Status), rec.Notes, rec.CompletedAt, rec.ID); err != nil {
		return nil, err
	}

	if delta != 0 {
		if _, err := tx.Exec(
			`UPDATE agents SET completed_tasks = completed_tasks + ? WHERE id = ?`,
			delta, agentID); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(`UPDATE distributions SET version = version + 1 WHERE id = ?`, distID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("distribution_id", distID).
		Str("agent_id", agentID).
		Str("record_id", recordID).
		Str("from", string(prev)).
		Str("to", string(status)).
		Msg("record status updated")

	return &rec, nil
}

// SaveRedistribution replaces the record rows wholesale if the caller's
// version still matches, and shifts assigned totals between the agents
// that gained or lost records.
func (s *SQLiteStore) SaveRedistribution(dist *types.Distribution, moves []types.RecordMove) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var version int64
	err = tx.QueryRow(`SELECT version FROM distributions WHERE id = ?`, dist.ID).Scan(&version)
	if err == sql.ErrNoRows {
		return types.ErrDistributionNotFound
	}
	if err != nil {
		return err
	}
	if version != dist.Version {
		return types.ErrConcurrentModification
	}

	if _, err := tx.Exec(`DELETE FROM records WHERE distribution_id = ?`, dist.ID); err != nil {
		return err
	}
	for _, g := range dist.Agents {
		for ri, rec := range g.Records {
			if err := insertRecord(tx, dist.ID, g.AgentID, rec, ri); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(
		`UPDATE distributions SET version = version + 1, summary_agents = ?, summary_average = ?,
			summary_time_ms = ?, summary_min = ?, summary_max = ?, summary_variance = ?, summary_fairness = ?
		 WHERE id = ?`,
		dist.Summary.TotalAgentsAssigned, dist.Summary.AverageRecordsPerAgent, dist.Summary.DistributionTime,
		dist.Summary.MinRecordsAssigned, dist.Summary.MaxRecordsAssigned, dist.Summary.DistributionVariance,
		dist.Summary.FairnessScore, dist.ID); err != nil {
		return err
	}

	for _, m := range moves {
		if m.FromAgentID == m.ToAgentID {
			continue
		}
		if _, err := tx.Exec(`UPDATE agents SET assigned_tasks = assigned_tasks - 1 WHERE id = ?`, m.FromAgentID); err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE agents SET assigned_tasks = assigned_tasks + 1 WHERE id = ?`, m.ToAgentID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Debug().
		Str("distribution_id", dist.ID).
		Int("moves", len(moves)).
		Msg("redistribution saved")

	return nil
}

// DeleteDistribution removes the distribution and takes back every total
// it contributed to the agents' counters. Groups and records go with it
// via cascade.
func (s *SQLiteStore) DeleteDistribution(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT agent_id, COUNT(*), SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END)
		 FROM records WHERE distribution_id = ? GROUP BY agent_id`, id)
	if err != nil {
		return err
	}

	type totals struct {
		agentID   string
		assigned  int
		completed int
	}
	var perAgent []totals
	for rows.Next() {
		var t totals
		if err := rows.Scan(&t.agentID, &t.assigned, &t.completed); err != nil {
			rows.Close()
			return err
		}
		perAgent = append(perAgent, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, t := range perAgent {
		if _, err := tx.Exec(
			`UPDATE agents SET assigned_tasks = assigned_tasks - ?, completed_tasks = completed_tasks - ? WHERE id = ?`,
			t.assigned, t.completed, t.agentID); err != nil {
			return err
		}
	}

	res, err := tx.Exec(`DELETE FROM distributions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrDistributionNotFound
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Debug().Str("distribution_id", id).Msg("distribution deleted")
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
