package agents

import (
	"context"
	"errors"
	"strings"
	"time"

	"crm-platform/internal/rbac"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound     = errors.New("agents: not found")
	ErrInvalidInput = errors.New("agents: invalid input")
	ErrDuplicate    = errors.New("agents: username or email already exists")
	ErrBadPassword  = errors.New("agents: invalid credentials")
)

type Repository interface {
	CreateAgent(ctx context.Context, a Agent) error
	GetAgent(ctx context.Context, id string) (Agent, error)
	GetAgentByUsername(ctx context.Context, username string) (Agent, bool, error)
	UpdateAgent(ctx context.Context, a Agent) error
	ListAgents(ctx context.Context) ([]Agent, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

type CreateInput struct {
	Username    string
	Email       string
	Password    string
	PhoneNumber string
	Department  string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Agent, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return Agent{}, ErrInvalidInput
	}

	if _, ok, err := s.repo.GetAgentByUsername(ctx, in.Username); err != nil {
		return Agent{}, err
	} else if ok {
		return Agent{}, ErrDuplicate
	}
	existing, err := s.repo.ListAgents(ctx)
	if err != nil {
		return Agent{}, err
	}
	for _, a := range existing {
		if a.Email == in.Email {
			return Agent{}, ErrDuplicate
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Agent{}, err
	}

	a := Agent{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         rbac.RoleAgent,
		Active:       true,
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Department:   strings.TrimSpace(in.Department),
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.repo.CreateAgent(ctx, a); err != nil {
		return Agent{}, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (Agent, error) {
	if id == "" {
		return Agent{}, ErrInvalidInput
	}
	return s.repo.GetAgent(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Agent, error) {
	return s.repo.ListAgents(ctx)
}

// Activate re-enables assignment eligibility.
func (s *Service) Activate(ctx context.Context, id string) error {
	return s.setActive(ctx, id, true)
}

// Deactivate blocks new assignments; historical records stay.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.setActive(ctx, id, false)
}

func (s *Service) setActive(ctx context.Context, id string, active bool) error {
	if id == "" {
		return ErrInvalidInput
	}
	a, err := s.repo.GetAgent(ctx, id)
	if err != nil {
		return err
	}
	a.Active = active
	return s.repo.UpdateAgent(ctx, a)
}

func (s *Service) ResetPassword(ctx context.Context, id, newPassword string) error {
	if id == "" || newPassword == "" {
		return ErrInvalidInput
	}
	a, err := s.repo.GetAgent(ctx, id)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return s.repo.UpdateAgent(ctx, a)
}

// Authenticate verifies username/password for token issuance.
// Inactive agents cannot log in.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Agent, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Agent{}, ErrInvalidInput
	}
	a, ok, err := s.repo.GetAgentByUsername(ctx, username)
	if err != nil {
		return Agent{}, err
	}
	if !ok || !a.Active {
		return Agent{}, ErrBadPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return Agent{}, ErrBadPassword
	}
	return a, nil
}
