package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/vendmart/vendmart/internal/vend"
)

func newTestService() (*Service, vend.Store) {
	store := vend.NewMemoryStore()
	return NewService(NewMemoryRepository(), store), store
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Username: "alice", Password: "s3cret", Role: vend.RoleBuyer})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != vend.RoleBuyer {
		t.Fatalf("expected buyer role, got %s", user.Role)
	}
	if string(user.PasswordHash) == "s3cret" {
		t.Fatalf("password stored in plain text")
	}

	// Registration must make the account visible to the vending engine.
	account, err := store.Account(ctx, user.ID)
	if err != nil {
		t.Fatalf("account not provisioned: %v", err)
	}
	if account.Balance != 0 || account.Role != vend.RoleBuyer {
		t.Fatalf("unexpected provisioned account: %+v", account)
	}

	authed, err := svc.Authenticate(ctx, Credentials{Username: "alice", Password: "s3cret"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("authenticated wrong user")
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "bob", Password: "s3cret", Role: vend.RoleSeller}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, Credentials{Username: "bob", Password: "other", Role: vend.RoleBuyer}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name  string
		creds Credentials
		want  error
	}{
		{"weak password", Credentials{Username: "carol", Password: "abc", Role: vend.RoleBuyer}, ErrWeakPassword},
		{"bad role", Credentials{Username: "carol", Password: "s3cret", Role: vend.Role("admin")}, ErrInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.creds); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := svc.Register(ctx, Credentials{Password: "s3cret", Role: vend.RoleBuyer}); err == nil {
		t.Fatalf("expected error for missing username")
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "dave", Password: "s3cret", Role: vend.RoleBuyer}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, Credentials{Username: "dave", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, Credentials{Username: "nobody", Password: "s3cret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestUpdateRole(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Username: "erin", Password: "s3cret", Role: vend.RoleBuyer})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := svc.UpdateRole(ctx, user.ID, vend.RoleSeller)
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if updated.Role != vend.RoleSeller {
		t.Fatalf("expected seller role, got %s", updated.Role)
	}

	if _, err := svc.UpdateRole(ctx, user.ID, vend.Role("admin")); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestUpdateRolePropagatesToVendingAccount(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Username: "gina", Password: "s3cret", Role: vend.RoleSeller})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	engine := vend.NewEngine(store, vend.DefaultCoinSet())
	if _, err := engine.Deposit(ctx, user.ID, 10); !errors.Is(err, vend.ErrPermissionDenied) {
		t.Fatalf("seller deposit should be denied, got %v", err)
	}

	if _, err := svc.UpdateRole(ctx, user.ID, vend.RoleBuyer); err != nil {
		t.Fatalf("update role: %v", err)
	}

	// The engine must see the new role without re-registration.
	balance, err := engine.Deposit(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("deposit after role change: %v", err)
	}
	if balance != 10 {
		t.Fatalf("expected balance 10, got %d", balance)
	}

	account, err := store.Account(ctx, user.ID)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if account.Role != vend.RoleBuyer {
		t.Fatalf("vending store still holds role %s", account.Role)
	}
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Username: "frank", Password: "s3cret", Role: vend.RoleSeller})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}
