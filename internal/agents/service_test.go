package agents

import (
	"context"
	"errors"
	"testing"

	"crm-platform/internal/rbac"

	"golang.org/x/crypto/bcrypt"
)

type fakeRepo struct {
	agents map[string]Agent
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{agents: make(map[string]Agent)}
}

func (r *fakeRepo) CreateAgent(ctx context.Context, a Agent) error {
	r.agents[a.ID] = a
	return nil
}

func (r *fakeRepo) GetAgent(ctx context.Context, id string) (Agent, error) {
	a, ok := r.agents[id]
	if !ok {
		return Agent{}, ErrNotFound
	}
	return a, nil
}

func (r *fakeRepo) GetAgentByUsername(ctx context.Context, username string) (Agent, bool, error) {
	for _, a := range r.agents {
		if a.Username == username {
			return a, true, nil
		}
	}
	return Agent{}, false, nil
}

func (r *fakeRepo) UpdateAgent(ctx context.Context, a Agent) error {
	if _, ok := r.agents[a.ID]; !ok {
		return ErrNotFound
	}
	r.agents[a.ID] = a
	return nil
}

func (r *fakeRepo) ListAgents(ctx context.Context) ([]Agent, error) {
	var out []Agent
	for _, a := range r.agents {
		out = append(out, a)
	}
	return out, nil
}

func TestCreate_HashesPasswordAndDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	a, err := svc.Create(context.Background(), CreateInput{Username: "ravi", Email: "ravi@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.Role != rbac.RoleAgent {
		t.Fatalf("expected agent role, got %q", a.Role)
	}
	if !a.Active {
		t.Fatalf("new agents start active")
	}
	if a.PasswordHash == "s3cret" || a.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("s3cret")); err != nil {
		t.Fatalf("hash must verify against the password: %v", err)
	}
}

func TestCreate_RejectsDuplicateUsername(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	if _, err := svc.Create(context.Background(), CreateInput{Username: "ravi", Email: "a@example.com", Password: "x"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{Username: "ravi", Email: "b@example.com", Password: "x"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{Username: "other", Email: "a@example.com", Password: "x"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for reused email, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Username: "ravi", Email: "ravi@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "ravi", "s3cret"); err != nil {
		t.Fatalf("valid credentials must pass: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ravi", "wrong"); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("expected ErrBadPassword, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ghost", "s3cret"); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("unknown user must look like a bad password, got %v", err)
	}

	if err := svc.Deactivate(context.Background(), created.ID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ravi", "s3cret"); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("inactive agents must not log in, got %v", err)
	}
}

func TestResetPassword(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Username: "ravi", Email: "ravi@example.com", Password: "old"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.ResetPassword(context.Background(), created.ID, "new"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ravi", "old"); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("old password must stop working")
	}
	if _, err := svc.Authenticate(context.Background(), "ravi", "new"); err != nil {
		t.Fatalf("new password must work: %v", err)
	}
}

func TestActivateDeactivate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Username: "ravi", Email: "ravi@example.com", Password: "x"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if err := svc.Deactivate(context.Background(), created.ID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	a, _ := svc.Get(context.Background(), created.ID)
	if a.Active {
		t.Fatalf("expected inactive")
	}

	if err := svc.Activate(context.Background(), created.ID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	a, _ = svc.Get(context.Background(), created.ID)
	if !a.Active {
		t.Fatalf("expected active")
	}

	if err := svc.Activate(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
