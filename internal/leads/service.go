package leads

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("leads: not found")
	ErrInvalidInput    = errors.New("leads: invalid input")
	ErrDuplicateMobile = errors.New("leads: mobile already exists")
	ErrDuplicate       = errors.New("leads: duplicate")
)

// Repository abstracts lead and project persistence.
//
// DeleteLead must cascade to every record owned by the lead (call sessions,
// feedback, reassignments, assignment history, activity entries).
type Repository interface {
	CreateLead(ctx context.Context, l Lead) error
	GetLead(ctx context.Context, id string) (Lead, error)
	GetLeadByMobile(ctx context.Context, mobile string) (Lead, bool, error)
	ListLeads(ctx context.Context, f Filter) ([]Lead, error)
	DeleteLead(ctx context.Context, id string) error

	CreateProject(ctx context.Context, p Project) error
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	DeleteProject(ctx context.Context, id string) error

	CreateLocation(ctx context.Context, l Location) error
	ListLocations(ctx context.Context) ([]Location, error)
	DeleteLocation(ctx context.Context, id string) error
}

// Service provides lead book-keeping outside the lifecycle engine.
// Status mutation is intentionally absent here.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// CreateInput carries the raw lead fields accepted from operators and the
// bulk importer. Name and Mobile are required.
type CreateInput struct {
	Name        string
	Email       string
	Mobile      string
	Pincode     string
	ProjectName string
	Source      string
	Year        int
	Location    string
}

// Create inserts a new lead with status "new".
// Duplicate mobiles are rejected, not merged.
func (s *Service) Create(ctx context.Context, in CreateInput) (Lead, error) {
	in.Mobile = strings.TrimSpace(in.Mobile)
	in.Name = strings.TrimSpace(in.Name)
	if in.Mobile == "" || in.Name == "" {
		return Lead{}, ErrInvalidInput
	}

	if _, ok, err := s.repo.GetLeadByMobile(ctx, in.Mobile); err != nil {
		return Lead{}, err
	} else if ok {
		return Lead{}, ErrDuplicateMobile
	}

	now := s.clock().UTC()
	l := Lead{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Email:       strings.TrimSpace(in.Email),
		Mobile:      in.Mobile,
		Pincode:     defaultNA(in.Pincode),
		ProjectName: defaultNA(in.ProjectName),
		Source:      defaultNA(in.Source),
		Year:        in.Year,
		Location:    defaultNA(in.Location),
		Priority:    "medium",
		Status:      StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateLead(ctx, l); err != nil {
		return Lead{}, err
	}
	return l, nil
}

func (s *Service) Get(ctx context.Context, id string) (Lead, error) {
	if id == "" {
		return Lead{}, ErrInvalidInput
	}
	return s.repo.GetLead(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Lead, error) {
	return s.repo.ListLeads(ctx, f)
}

// Delete removes a lead and everything it owns.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.DeleteLead(ctx, id)
}

// CreateProject registers a project. Code and name must be unique.
func (s *Service) CreateProject(ctx context.Context, code, name string) (Project, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return Project{}, ErrInvalidInput
	}

	existing, err := s.repo.ListProjects(ctx)
	if err != nil {
		return Project{}, err
	}
	for _, p := range existing {
		if p.Code == code || p.Name == name {
			return Project{}, ErrDuplicate
		}
	}

	p := Project{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      name,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return Project{}, err
	}
	return p, nil
}

func (s *Service) ListProjects(ctx context.Context) ([]Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.DeleteProject(ctx, id)
}

// CreateLocation registers a location. Name must be unique.
func (s *Service) CreateLocation(ctx context.Context, name string) (Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Location{}, ErrInvalidInput
	}

	existing, err := s.repo.ListLocations(ctx)
	if err != nil {
		return Location{}, err
	}
	for _, loc := range existing {
		if loc.Name == name {
			return Location{}, ErrDuplicate
		}
	}

	loc := Location{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.CreateLocation(ctx, loc); err != nil {
		return Location{}, err
	}
	return loc, nil
}

func (s *Service) ListLocations(ctx context.Context) ([]Location, error) {
	return s.repo.ListLocations(ctx)
}

func (s *Service) DeleteLocation(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.DeleteLocation(ctx, id)
}

func defaultNA(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "N/A"
	}
	return v
}
