package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"crm-platform/internal/activity"
	"crm-platform/internal/agents"
	"crm-platform/internal/assignment"
	"crm-platform/internal/callsession"
	"crm-platform/internal/feedback"
	"crm-platform/internal/leads"
)

// Memory is an in-memory implementation of every service repository
// interface. It backs tests and local development; production wiring uses
// Postgres instead.
type Memory struct {
	mu sync.Mutex

	leads     map[string]leads.Lead
	projects  map[string]leads.Project
	locations map[string]leads.Location
	agents    map[string]agents.Agent
	sessions  map[string]callsession.CallSession

	history       []assignment.HistoryEntry
	reassignments []assignment.Reassignment
	feedback      []feedback.Feedback
	activity      []activity.Entry
}

func NewMemory() *Memory {
	return &Memory{
		leads:     make(map[string]leads.Lead),
		projects:  make(map[string]leads.Project),
		locations: make(map[string]leads.Location),
		agents:    make(map[string]agents.Agent),
		sessions:  make(map[string]callsession.CallSession),
	}
}

type memTxKey struct{}

// lockCtx takes the store lock unless the context already runs inside InTx,
// which holds it for the whole unit of work.
func (m *Memory) lockCtx(ctx context.Context) func() {
	if ctx.Value(memTxKey{}) != nil {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

// InTx runs fn under the store lock with snapshot/rollback semantics: if fn
// returns an error every write it made is discarded.
func (m *Memory) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		// Nested unit of work joins the outer one.
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, struct{}{})); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	leads     map[string]leads.Lead
	projects  map[string]leads.Project
	locations map[string]leads.Location
	agents    map[string]agents.Agent
	sessions  map[string]callsession.CallSession

	history       []assignment.HistoryEntry
	reassignments []assignment.Reassignment
	feedback      []feedback.Feedback
	activity      []activity.Entry
}

func (m *Memory) snapshot() memSnapshot {
	return memSnapshot{
		leads:         cloneMap(m.leads),
		projects:      cloneMap(m.projects),
		locations:     cloneMap(m.locations),
		agents:        cloneMap(m.agents),
		sessions:      cloneMap(m.sessions),
		history:       append([]assignment.HistoryEntry(nil), m.history...),
		reassignments: append([]assignment.Reassignment(nil), m.reassignments...),
		feedback:      append([]feedback.Feedback(nil), m.feedback...),
		activity:      append([]activity.Entry(nil), m.activity...),
	}
}

func (m *Memory) restore(s memSnapshot) {
	m.leads = s.leads
	m.projects = s.projects
	m.locations = s.locations
	m.agents = s.agents
	m.sessions = s.sessions
	m.history = s.history
	m.reassignments = s.reassignments
	m.feedback = s.feedback
	m.activity = s.activity
}

func cloneMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// --- leads ---

func (m *Memory) CreateLead(ctx context.Context, l leads.Lead) error {
	defer m.lockCtx(ctx)()
	for _, existing := range m.leads {
		if existing.Mobile == l.Mobile {
			return leads.ErrDuplicateMobile
		}
	}
	m.leads[l.ID] = l
	return nil
}

func (m *Memory) GetLead(ctx context.Context, id string) (leads.Lead, error) {
	defer m.lockCtx(ctx)()
	l, ok := m.leads[id]
	if !ok {
		return leads.Lead{}, leads.ErrNotFound
	}
	return l, nil
}

func (m *Memory) GetLeadByMobile(ctx context.Context, mobile string) (leads.Lead, bool, error) {
	defer m.lockCtx(ctx)()
	for _, l := range m.leads {
		if l.Mobile == mobile {
			return l, true, nil
		}
	}
	return leads.Lead{}, false, nil
}

func (m *Memory) UpdateLead(ctx context.Context, l leads.Lead) error {
	defer m.lockCtx(ctx)()
	if _, ok := m.leads[l.ID]; !ok {
		return leads.ErrNotFound
	}
	m.leads[l.ID] = l
	return nil
}

func (m *Memory) ListLeads(ctx context.Context, f leads.Filter) ([]leads.Lead, error) {
	defer m.lockCtx(ctx)()

	out := make([]leads.Lead, 0, len(m.leads))
	for _, l := range m.leads {
		if !matchLead(l, f) {
			continue
		}
		out = append(out, l)
	}
	sortLeads(out, f.SortBy, f.SortOrder)
	return out, nil
}

func matchLead(l leads.Lead, f leads.Filter) bool {
	if f.Name != "" && !containsFold(l.Name, f.Name) {
		return false
	}
	if f.Mobile != "" && !strings.Contains(l.Mobile, f.Mobile) {
		return false
	}
	if f.ProjectName != "" && !containsFold(l.ProjectName, f.ProjectName) {
		return false
	}
	if f.Pincode != "" && l.Pincode != f.Pincode {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.AgentID != "" && l.AssignedAgentID != f.AgentID {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sortLeads(ls []leads.Lead, sortBy, order string) {
	lessAsc := func(a, b leads.Lead) bool {
		switch sortBy {
		case "name":
			return a.Name < b.Name
		case "assigned_date":
			var ta, tb int64
			if a.AssignedDate != nil {
				ta = a.AssignedDate.UnixNano()
			}
			if b.AssignedDate != nil {
				tb = b.AssignedDate.UnixNano()
			}
			return ta < tb
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.ID < b.ID
		}
	}
	sort.SliceStable(ls, func(i, j int) bool {
		if order == "desc" {
			return lessAsc(ls[j], ls[i])
		}
		return lessAsc(ls[i], ls[j])
	})
}

func (m *Memory) DeleteLead(ctx context.Context, id string) error {
	defer m.lockCtx(ctx)()
	if _, ok := m.leads[id]; !ok {
		return leads.ErrNotFound
	}
	delete(m.leads, id)

	// Cascade: the lead exclusively owns these records.
	for sid, cs := range m.sessions {
		if cs.LeadID == id {
			delete(m.sessions, sid)
		}
	}
	m.history = filterInPlace(m.history, func(h assignment.HistoryEntry) bool { return h.LeadID != id })
	m.reassignments = filterInPlace(m.reassignments, func(r assignment.Reassignment) bool { return r.LeadID != id })
	m.feedback = filterInPlace(m.feedback, func(f feedback.Feedback) bool { return f.LeadID != id })
	m.activity = filterInPlace(m.activity, func(e activity.Entry) bool { return e.LeadID != id })
	return nil
}

func filterInPlace[T any](in []T, keep func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// --- projects ---

func (m *Memory) CreateProject(ctx context.Context, p leads.Project) error {
	defer m.lockCtx(ctx)()
	for _, existing := range m.projects {
		if existing.Code == p.Code || existing.Name == p.Name {
			return leads.ErrDuplicate
		}
	}
	m.projects[p.ID] = p
	return nil
}

func (m *Memory) GetProject(ctx context.Context, id string) (leads.Project, error) {
	defer m.lockCtx(ctx)()
	p, ok := m.projects[id]
	if !ok {
		return leads.Project{}, leads.ErrNotFound
	}
	return p, nil
}

func (m *Memory) ListProjects(ctx context.Context) ([]leads.Project, error) {
	defer m.lockCtx(ctx)()
	out := make([]leads.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DeleteProject(ctx context.Context, id string) error {
	defer m.lockCtx(ctx)()
	if _, ok := m.projects[id]; !ok {
		return leads.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

// --- locations ---

func (m *Memory) CreateLocation(ctx context.Context, loc leads.Location) error {
	defer m.lockCtx(ctx)()
	for _, existing := range m.locations {
		if existing.Name == loc.Name {
			return leads.ErrDuplicate
		}
	}
	m.locations[loc.ID] = loc
	return nil
}

func (m *Memory) ListLocations(ctx context.Context) ([]leads.Location, error) {
	defer m.lockCtx(ctx)()
	out := make([]leads.Location, 0, len(m.locations))
	for _, loc := range m.locations {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DeleteLocation(ctx context.Context, id string) error {
	defer m.lockCtx(ctx)()
	if _, ok := m.locations[id]; !ok {
		return leads.ErrNotFound
	}
	delete(m.locations, id)
	return nil
}

// --- agents ---

func (m *Memory) CreateAgent(ctx context.Context, a agents.Agent) error {
	defer m.lockCtx(ctx)()
	for _, existing := range m.agents {
		if existing.Username == a.Username || existing.Email == a.Email {
			return agents.ErrDuplicate
		}
	}
	m.agents[a.ID] = a
	return nil
}

func (m *Memory) GetAgent(ctx context.Context, id string) (agents.Agent, error) {
	defer m.lockCtx(ctx)()
	a, ok := m.agents[id]
	if !ok {
		return agents.Agent{}, agents.ErrNotFound
	}
	return a, nil
}

func (m *Memory) GetAgentByUsername(ctx context.Context, username string) (agents.Agent, bool, error) {
	defer m.lockCtx(ctx)()
	for _, a := range m.agents {
		if a.Username == username {
			return a, true, nil
		}
	}
	return agents.Agent{}, false, nil
}

func (m *Memory) UpdateAgent(ctx context.Context, a agents.Agent) error {
	defer m.lockCtx(ctx)()
	if _, ok := m.agents[a.ID]; !ok {
		return agents.ErrNotFound
	}
	m.agents[a.ID] = a
	return nil
}

func (m *Memory) ListAgents(ctx context.Context) ([]agents.Agent, error) {
	defer m.lockCtx(ctx)()
	out := make([]agents.Agent, 0, len(m.agents))
	for _, a := range m.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// --- assignment ---

func (m *Memory) AppendAssignmentHistory(ctx context.Context, h assignment.HistoryEntry) error {
	defer m.lockCtx(ctx)()
	m.history = append(m.history, h)
	return nil
}

func (m *Memory) AppendReassignment(ctx context.Context, r assignment.Reassignment) error {
	defer m.lockCtx(ctx)()
	m.reassignments = append(m.reassignments, r)
	return nil
}

func (m *Memory) ListAssignmentHistoryByLead(ctx context.Context, leadID string) ([]assignment.HistoryEntry, error) {
	defer m.lockCtx(ctx)()
	var out []assignment.HistoryEntry
	for _, h := range m.history {
		if h.LeadID == leadID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *Memory) ListReassignmentsByLead(ctx context.Context, leadID string) ([]assignment.Reassignment, error) {
	defer m.lockCtx(ctx)()
	var out []assignment.Reassignment
	for _, r := range m.reassignments {
		if r.LeadID == leadID {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- call sessions ---

func (m *Memory) CreateCallSession(ctx context.Context, cs callsession.CallSession) error {
	defer m.lockCtx(ctx)()
	m.sessions[cs.ID] = cs
	return nil
}

func (m *Memory) GetCallSession(ctx context.Context, id string) (callsession.CallSession, error) {
	defer m.lockCtx(ctx)()
	cs, ok := m.sessions[id]
	if !ok {
		return callsession.CallSession{}, callsession.ErrNotFound
	}
	return cs, nil
}

func (m *Memory) UpdateCallSession(ctx context.Context, cs callsession.CallSession) error {
	defer m.lockCtx(ctx)()
	if _, ok := m.sessions[cs.ID]; !ok {
		return callsession.ErrNotFound
	}
	m.sessions[cs.ID] = cs
	return nil
}

func (m *Memory) ListCallSessionsByLead(ctx context.Context, leadID string) ([]callsession.CallSession, error) {
	defer m.lockCtx(ctx)()
	var out []callsession.CallSession
	for _, cs := range m.sessions {
		if cs.LeadID == leadID {
			out = append(out, cs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CallTime.Before(out[j].CallTime) })
	return out, nil
}

func (m *Memory) ListCallSessionsByAgent(ctx context.Context, agentID string) ([]callsession.CallSession, error) {
	defer m.lockCtx(ctx)()
	var out []callsession.CallSession
	for _, cs := range m.sessions {
		if cs.AgentID == agentID {
			out = append(out, cs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CallTime.Before(out[j].CallTime) })
	return out, nil
}

func (m *Memory) ListCallSessions(ctx context.Context) ([]callsession.CallSession, error) {
	defer m.lockCtx(ctx)()
	out := make([]callsession.CallSession, 0, len(m.sessions))
	for _, cs := range m.sessions {
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CallTime.Before(out[j].CallTime) })
	return out, nil
}

// --- feedback ---

func (m *Memory) CreateFeedback(ctx context.Context, f feedback.Feedback) error {
	defer m.lockCtx(ctx)()
	m.feedback = append(m.feedback, f)
	return nil
}

func (m *Memory) ListFeedbackByLead(ctx context.Context, leadID string) ([]feedback.Feedback, error) {
	defer m.lockCtx(ctx)()
	var out []feedback.Feedback
	for _, f := range m.feedback {
		if f.LeadID == leadID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *Memory) ListFeedbackByAgent(ctx context.Context, agentID string) ([]feedback.Feedback, error) {
	defer m.lockCtx(ctx)()
	var out []feedback.Feedback
	for _, f := range m.feedback {
		if f.AgentID == agentID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *Memory) ListFeedback(ctx context.Context) ([]feedback.Feedback, error) {
	defer m.lockCtx(ctx)()
	out := make([]feedback.Feedback, len(m.feedback))
	copy(out, m.feedback)
	return out, nil
}

// --- activity ---

func (m *Memory) AppendActivity(ctx context.Context, e activity.Entry) error {
	defer m.lockCtx(ctx)()
	m.activity = append(m.activity, e)
	return nil
}

func (m *Memory) ListActivityByLead(ctx context.Context, leadID string) ([]activity.Entry, error) {
	defer m.lockCtx(ctx)()
	var out []activity.Entry
	for _, e := range m.activity {
		if e.LeadID == leadID {
			out = append(out, e)
		}
	}
	return out, nil
}
