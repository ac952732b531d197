package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"crm-platform/internal/activity"
	"crm-platform/internal/agents"
	"crm-platform/internal/assignment"
	"crm-platform/internal/callsession"
	"crm-platform/internal/feedback"
	"crm-platform/internal/leads"
	"crm-platform/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
)

// NOTE: This store assumes the following tables exist:
// - leads (UNIQUE mobile)
// - projects (UNIQUE code, UNIQUE name)
// - locations (UNIQUE name)
// - agents (UNIQUE username, UNIQUE email)
// - call_sessions
// - feedback (variant payload in a jsonb details column)
// - assignment_history (immutable append-only)
// - reassignments (immutable append-only)
// - activity_entries (immutable append-only)
//
// Child tables reference leads(id) ON DELETE CASCADE; deleting a lead removes
// everything it owns.

// Postgres implements every service repository interface on database/sql.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type pgTxKey struct{}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (p *Postgres) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(pgTxKey{}).(*sql.Tx); ok {
		return tx
	}
	return p.db
}

// InTx runs fn inside one database transaction. Repository calls made with
// the context fn receives join that transaction; a nested InTx joins the
// outer one.
func (p *Postgres) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(pgTxKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	return utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		return fn(context.WithValue(ctx, pgTxKey{}, tx))
	})
}

// --- leads ---

const leadColumns = `id, name, email, mobile, pincode, project_name, project_id, source, year, location,
       alternate_phone, address, city, state, country, priority, category,
       assigned_agent_id, assigned_date, status, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }) (leads.Lead, error) {
	var l leads.Lead
	var projectID, agentID sql.NullString
	var assignedDate sql.NullTime
	err := row.Scan(
		&l.ID, &l.Name, &l.Email, &l.Mobile, &l.Pincode, &l.ProjectName, &projectID,
		&l.Source, &l.Year, &l.Location,
		&l.AlternatePhone, &l.Address, &l.City, &l.State, &l.Country,
		&l.Priority, &l.Category,
		&agentID, &assignedDate, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return leads.Lead{}, err
	}
	l.ProjectID = projectID.String
	l.AssignedAgentID = agentID.String
	if assignedDate.Valid {
		t := assignedDate.Time
		l.AssignedDate = &t
	}
	return l, nil
}

func (p *Postgres) CreateLead(ctx context.Context, l leads.Lead) error {
	const q = `
INSERT INTO leads (
  id, name, email, mobile, pincode, project_name, project_id, source, year, location,
  alternate_phone, address, city, state, country, priority, category,
  assigned_agent_id, assigned_date, status, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22
)
`
	_, err := p.q(ctx).ExecContext(ctx, q,
		l.ID, l.Name, l.Email, l.Mobile, l.Pincode, l.ProjectName, nullStr(l.ProjectID),
		l.Source, l.Year, l.Location,
		l.AlternatePhone, l.Address, l.City, l.State, l.Country, l.Priority, l.Category,
		nullStr(l.AssignedAgentID), l.AssignedDate, l.Status, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return leads.ErrDuplicateMobile
	}
	return err
}

func (p *Postgres) GetLead(ctx context.Context, id string) (leads.Lead, error) {
	q := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	l, err := scanLead(p.q(ctx).QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return leads.Lead{}, leads.ErrNotFound
	}
	return l, err
}

func (p *Postgres) GetLeadByMobile(ctx context.Context, mobile string) (leads.Lead, bool, error) {
	q := `SELECT ` + leadColumns + ` FROM leads WHERE mobile = $1`
	l, err := scanLead(p.q(ctx).QueryRowContext(ctx, q, mobile))
	if errors.Is(err, sql.ErrNoRows) {
		return leads.Lead{}, false, nil
	}
	if err != nil {
		return leads.Lead{}, false, err
	}
	return l, true, nil
}

func (p *Postgres) UpdateLead(ctx context.Context, l leads.Lead) error {
	const q = `
UPDATE leads SET
  name = $2, email = $3, mobile = $4, pincode = $5, project_name = $6, project_id = $7,
  source = $8, year = $9, location = $10, alternate_phone = $11, address = $12,
  city = $13, state = $14, country = $15, priority = $16, category = $17,
  assigned_agent_id = $18, assigned_date = $19, status = $20, updated_at = $21
WHERE id = $1
`
	res, err := p.q(ctx).ExecContext(ctx, q,
		l.ID, l.Name, l.Email, l.Mobile, l.Pincode, l.ProjectName, nullStr(l.ProjectID),
		l.Source, l.Year, l.Location, l.AlternatePhone, l.Address,
		l.City, l.State, l.Country, l.Priority, l.Category,
		nullStr(l.AssignedAgentID), l.AssignedDate, l.Status, l.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res, leads.ErrNotFound)
}

func (p *Postgres) ListLeads(ctx context.Context, f leads.Filter) ([]leads.Lead, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Name != "" {
		add("name ILIKE '%%' || $%d || '%%'", f.Name)
	}
	if f.Mobile != "" {
		add("mobile LIKE '%%' || $%d || '%%'", f.Mobile)
	}
	if f.ProjectName != "" {
		add("project_name ILIKE '%%' || $%d || '%%'", f.ProjectName)
	}
	if f.Pincode != "" {
		add("pincode = $%d", f.Pincode)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.AgentID != "" {
		add("assigned_agent_id = $%d", f.AgentID)
	}

	q := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + leadSortClause(f.SortBy, f.SortOrder)

	rows, err := p.q(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leads.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// leadSortClause whitelists sort columns; anything else falls back to id.
func leadSortClause(sortBy, order string) string {
	col := "id"
	switch sortBy {
	case "name", "created_at", "assigned_date":
		col = sortBy
	}
	dir := "ASC"
	if order == "desc" {
		dir = "DESC"
	}
	return col + " " + dir
}

func (p *Postgres) DeleteLead(ctx context.Context, id string) error {
	// Child rows go with it via ON DELETE CASCADE.
	res, err := p.q(ctx).ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, leads.ErrNotFound)
}

// --- projects ---

func (p *Postgres) CreateProject(ctx context.Context, pr leads.Project) error {
	const q = `INSERT INTO projects (id, code, name, created_at) VALUES ($1,$2,$3,$4)`
	_, err := p.q(ctx).ExecContext(ctx, q, pr.ID, pr.Code, pr.Name, pr.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return leads.ErrDuplicate
	}
	return err
}

func (p *Postgres) GetProject(ctx context.Context, id string) (leads.Project, error) {
	const q = `SELECT id, code, name, created_at FROM projects WHERE id = $1`
	var pr leads.Project
	err := p.q(ctx).QueryRowContext(ctx, q, id).Scan(&pr.ID, &pr.Code, &pr.Name, &pr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return leads.Project{}, leads.ErrNotFound
	}
	return pr, err
}

func (p *Postgres) ListProjects(ctx context.Context) ([]leads.Project, error) {
	const q = `SELECT id, code, name, created_at FROM projects ORDER BY created_at`
	rows, err := p.q(ctx).QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leads.Project
	for rows.Next() {
		var pr leads.Project
		if err := rows.Scan(&pr.ID, &pr.Code, &pr.Name, &pr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteProject(ctx context.Context, id string) error {
	res, err := p.q(ctx).ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, leads.ErrNotFound)
}

// --- locations ---

func (p *Postgres) CreateLocation(ctx context.Context, loc leads.Location) error {
	const q = `INSERT INTO locations (id, name, created_at) VALUES ($1,$2,$3)`
	_, err := p.q(ctx).ExecContext(ctx, q, loc.ID, loc.Name, loc.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return leads.ErrDuplicate
	}
	return err
}

func (p *Postgres) ListLocations(ctx context.Context) ([]leads.Location, error) {
	const q = `SELECT id, name, created_at FROM locations ORDER BY created_at`
	rows, err := p.q(ctx).QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leads.Location
	for rows.Next() {
		var loc leads.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteLocation(ctx context.Context, id string) error {
	res, err := p.q(ctx).ExecContext(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, leads.ErrNotFound)
}

// --- agents ---

const agentColumns = `id, username, email, password_hash, role, active, phone_number, department, created_at`

func scanAgent(row interface{ Scan(...any) error }) (agents.Agent, error) {
	var a agents.Agent
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Role, &a.Active,
		&a.PhoneNumber, &a.Department, &a.CreatedAt,
	)
	return a, err
}

func (p *Postgres) CreateAgent(ctx context.Context, a agents.Agent) error {
	const q = `
INSERT INTO agents (id, username, email, password_hash, role, active, phone_number, department, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
	_, err := p.q(ctx).ExecContext(ctx, q,
		a.ID, a.Username, a.Email, a.PasswordHash, a.Role, a.Active,
		a.PhoneNumber, a.Department, a.CreatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return agents.ErrDuplicate
	}
	return err
}

func (p *Postgres) GetAgent(ctx context.Context, id string) (agents.Agent, error) {
	q := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`
	a, err := scanAgent(p.q(ctx).QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return agents.Agent{}, agents.ErrNotFound
	}
	return a, err
}

func (p *Postgres) GetAgentByUsername(ctx context.Context, username string) (agents.Agent, bool, error) {
	q := `SELECT ` + agentColumns + ` FROM agents WHERE username = $1`
	a, err := scanAgent(p.q(ctx).QueryRowContext(ctx, q, username))
	if errors.Is(err, sql.ErrNoRows) {
		return agents.Agent{}, false, nil
	}
	if err != nil {
		return agents.Agent{}, false, err
	}
	return a, true, nil
}

func (p *Postgres) UpdateAgent(ctx context.Context, a agents.Agent) error {
	const q = `
UPDATE agents SET username = $2, email = $3, password_hash = $4, role = $5, active = $6,
       phone_number = $7, department = $8
WHERE id = $1
`
	res, err := p.q(ctx).ExecContext(ctx, q,
		a.ID, a.Username, a.Email, a.PasswordHash, a.Role, a.Active, a.PhoneNumber, a.Department,
	)
	if err != nil {
		return err
	}
	return requireRow(res, agents.ErrNotFound)
}

func (p *Postgres) ListAgents(ctx context.Context) ([]agents.Agent, error) {
	q := `SELECT ` + agentColumns + ` FROM agents ORDER BY username`
	rows, err := p.q(ctx).QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []agents.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- assignment ---

func (p *Postgres) AppendAssignmentHistory(ctx context.Context, h assignment.HistoryEntry) error {
	const q = `
INSERT INTO assignment_history (
  id, lead_id, agent_id, assigned_by_id, previous_agent_id, project_id, note, type, assigned_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
	_, err := p.q(ctx).ExecContext(ctx, q,
		h.ID, h.LeadID, h.AgentID, h.AssignedByID, nullStr(h.PreviousAgentID),
		nullStr(h.ProjectID), h.Note, h.Type, h.AssignedAt,
	)
	return err
}

func (p *Postgres) AppendReassignment(ctx context.Context, r assignment.Reassignment) error {
	const q = `
INSERT INTO reassignments (id, lead_id, from_agent_id, to_agent_id, reason, reassigned_at)
VALUES ($1,$2,$3,$4,$5,$6)
`
	_, err := p.q(ctx).ExecContext(ctx, q,
		r.ID, r.LeadID, r.FromAgentID, r.ToAgentID, r.Reason, r.ReassignedAt,
	)
	return err
}

func (p *Postgres) ListAssignmentHistoryByLead(ctx context.Context, leadID string) ([]assignment.HistoryEntry, error) {
	const q = `
SELECT id, lead_id, agent_id, assigned_by_id, previous_agent_id, project_id, note, type, assigned_at
FROM assignment_history
WHERE lead_id = $1
ORDER BY assigned_at
`
	rows, err := p.q(ctx).QueryContext(ctx, q, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []assignment.HistoryEntry
	for rows.Next() {
		var h assignment.HistoryEntry
		var prev, projectID sql.NullString
		if err := rows.Scan(
			&h.ID, &h.LeadID, &h.AgentID, &h.AssignedByID, &prev, &projectID,
			&h.Note, &h.Type, &h.AssignedAt,
		); err != nil {
			return nil, err
		}
		h.PreviousAgentID = prev.String
		h.ProjectID = projectID.String
		out = append(out, h)
	}
	return out, rows.Err()
}

func (p *Postgres) ListReassignmentsByLead(ctx context.Context, leadID string) ([]assignment.Reassignment, error) {
	const q = `
SELECT id, lead_id, from_agent_id, to_agent_id, reason, reassigned_at
FROM reassignments
WHERE lead_id = $1
ORDER BY reassigned_at
`
	rows, err := p.q(ctx).QueryContext(ctx, q, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []assignment.Reassignment
	for rows.Next() {
		var r assignment.Reassignment
		if err := rows.Scan(&r.ID, &r.LeadID, &r.FromAgentID, &r.ToAgentID, &r.Reason, &r.ReassignedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- call sessions ---

const sessionColumns = `id, session_id, lead_id, agent_id, call_time, end_time, status,
       duration_seconds, notes, recording_path`

func scanSession(row interface{ Scan(...any) error }) (callsession.CallSession, error) {
	var cs callsession.CallSession
	var end sql.NullTime
	err := row.Scan(
		&cs.ID, &cs.SessionID, &cs.LeadID, &cs.AgentID, &cs.CallTime, &end,
		&cs.Status, &cs.DurationSeconds, &cs.Notes, &cs.RecordingPath,
	)
	if err != nil {
		return callsession.CallSession{}, err
	}
	if end.Valid {
		t := end.Time
		cs.EndTime = &t
	}
	return cs, nil
}

func (p *Postgres) CreateCallSession(ctx context.Context, cs callsession.CallSession) error {
	const q = `
INSERT INTO call_sessions (
  id, session_id, lead_id, agent_id, call_time, end_time, status, duration_seconds, notes, recording_path
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`
	_, err := p.q(ctx).ExecContext(ctx, q,
		cs.ID, cs.SessionID, cs.LeadID, cs.AgentID, cs.CallTime, cs.EndTime,
		cs.Status, cs.DurationSeconds, cs.Notes, cs.RecordingPath,
	)
	return err
}

func (p *Postgres) GetCallSession(ctx context.Context, id string) (callsession.CallSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM call_sessions WHERE id = $1`
	cs, err := scanSession(p.q(ctx).QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return callsession.CallSession{}, callsession.ErrNotFound
	}
	return cs, err
}

func (p *Postgres) UpdateCallSession(ctx context.Context, cs callsession.CallSession) error {
	const q = `
UPDATE call_sessions SET end_time = $2, status = $3, duration_seconds = $4, notes = $5, recording_path = $6
WHERE id = $1
`
	res, err := p.q(ctx).ExecContext(ctx, q,
		cs.ID, cs.EndTime, cs.Status, cs.DurationSeconds, cs.Notes, cs.RecordingPath,
	)
	if err != nil {
		return err
	}
	return requireRow(res, callsession.ErrNotFound)
}

func (p *Postgres) ListCallSessionsByLead(ctx context.Context, leadID string) ([]callsession.CallSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM call_sessions WHERE lead_id = $1 ORDER BY call_time`
	return p.listSessions(ctx, q, leadID)
}

func (p *Postgres) ListCallSessionsByAgent(ctx context.Context, agentID string) ([]callsession.CallSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM call_sessions WHERE agent_id = $1 ORDER BY call_time`
	return p.listSessions(ctx, q, agentID)
}

func (p *Postgres) ListCallSessions(ctx context.Context) ([]callsession.CallSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM call_sessions ORDER BY call_time`
	return p.listSessions(ctx, q)
}

func (p *Postgres) listSessions(ctx context.Context, q string, args ...any) ([]callsession.CallSession, error) {
	rows, err := p.q(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []callsession.CallSession
	for rows.Next() {
		cs, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// --- feedback ---

// feedbackDetails is the jsonb payload holding the type-specific variant.
type feedbackDetails struct {
	Interested    *feedback.Interested    `json:"interested,omitempty"`
	NotInterested *feedback.NotInterested `json:"not_interested,omitempty"`
	Callback      *feedback.Callback      `json:"callback,omitempty"`
}

func (p *Postgres) CreateFeedback(ctx context.Context, f feedback.Feedback) error {
	details, err := json.Marshal(feedbackDetails{
		Interested:    f.Interested,
		NotInterested: f.NotInterested,
		Callback:      f.Callback,
	})
	if err != nil {
		return err
	}
	const q = `
INSERT INTO feedback (
  id, lead_id, agent_id, session_id, type, details, additional_notes, recording_path,
  call_duration_seconds, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`
	_, err = p.q(ctx).ExecContext(ctx, q,
		f.ID, f.LeadID, f.AgentID, f.SessionID, f.Type, details,
		f.AdditionalNotes, f.RecordingPath, f.CallDurationSeconds, f.CreatedAt,
	)
	return err
}

func (p *Postgres) ListFeedbackByLead(ctx context.Context, leadID string) ([]feedback.Feedback, error) {
	const q = `
SELECT id, lead_id, agent_id, session_id, type, details, additional_notes, recording_path,
       call_duration_seconds, created_at
FROM feedback
WHERE lead_id = $1
ORDER BY created_at
`
	return p.listFeedback(ctx, q, leadID)
}

func (p *Postgres) ListFeedbackByAgent(ctx context.Context, agentID string) ([]feedback.Feedback, error) {
	const q = `
SELECT id, lead_id, agent_id, session_id, type, details, additional_notes, recording_path,
       call_duration_seconds, created_at
FROM feedback
WHERE agent_id = $1
ORDER BY created_at
`
	return p.listFeedback(ctx, q, agentID)
}

func (p *Postgres) ListFeedback(ctx context.Context) ([]feedback.Feedback, error) {
	const q = `
SELECT id, lead_id, agent_id, session_id, type, details, additional_notes, recording_path,
       call_duration_seconds, created_at
FROM feedback
ORDER BY created_at
`
	return p.listFeedback(ctx, q)
}

func (p *Postgres) listFeedback(ctx context.Context, q string, args ...any) ([]feedback.Feedback, error) {
	rows, err := p.q(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []feedback.Feedback
	for rows.Next() {
		var f feedback.Feedback
		var raw []byte
		if err := rows.Scan(
			&f.ID, &f.LeadID, &f.AgentID, &f.SessionID, &f.Type, &raw,
			&f.AdditionalNotes, &f.RecordingPath, &f.CallDurationSeconds, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		var details feedbackDetails
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &details); err != nil {
				return nil, err
			}
		}
		f.Interested = details.Interested
		f.NotInterested = details.NotInterested
		f.Callback = details.Callback
		out = append(out, f)
	}
	return out, rows.Err()
}

// --- activity ---

func (p *Postgres) AppendActivity(ctx context.Context, e activity.Entry) error {
	const q = `
INSERT INTO activity_entries (id, agent_id, lead_id, session_id, message, kind, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err := p.q(ctx).ExecContext(ctx, q,
		e.ID, e.AgentID, e.LeadID, e.SessionID, e.Message, e.Kind, e.CreatedAt,
	)
	return err
}

func (p *Postgres) ListActivityByLead(ctx context.Context, leadID string) ([]activity.Entry, error) {
	const q = `
SELECT id, agent_id, lead_id, session_id, message, kind, created_at
FROM activity_entries
WHERE lead_id = $1
ORDER BY created_at
`
	rows, err := p.q(ctx).QueryContext(ctx, q, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []activity.Entry
	for rows.Next() {
		var e activity.Entry
		if err := rows.Scan(&e.ID, &e.AgentID, &e.LeadID, &e.SessionID, &e.Message, &e.Kind, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- helpers ---

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
