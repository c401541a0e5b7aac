package auth

import (
	"context"
	"errors"
	"testing"
)

func TestOwnerTwoStepTransfer(t *testing.T) {
	ctx := context.Background()
	o := NewOwner("operator")

	if !o.IsPrivileged(ctx, "operator") {
		t.Fatal("initial owner should be privileged")
	}

	if err := o.Propose(ctx, "mallory", "mallory"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := o.Propose(ctx, "operator", "successor"); err != nil {
		t.Fatalf("Propose: %v", err)
	}

	if o.IsPrivileged(ctx, "successor") {
		t.Error("proposed owner must not be privileged before accepting")
	}
	if o.Pending() != "successor" {
		t.Errorf("Pending: got %q", o.Pending())
	}

	if err := o.Accept(ctx, "mallory"); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if err := o.Accept(ctx, "successor"); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if o.IsPrivileged(ctx, "operator") {
		t.Error("previous owner should lose privilege")
	}
	if !o.IsPrivileged(ctx, "successor") {
		t.Error("new owner should be privileged")
	}
	if o.Owner() != "successor" || o.Pending() != "" {
		t.Errorf("state after accept: owner=%q pending=%q", o.Owner(), o.Pending())
	}
}

func TestOwnerCancel(t *testing.T) {
	ctx := context.Background()
	o := NewOwner("operator")

	if err := o.Cancel(ctx, "operator"); !errors.Is(err, ErrNoPendingOwner) {
		t.Fatalf("expected ErrNoPendingOwner, got %v", err)
	}
	_ = o.Propose(ctx, "operator", "successor")
	if err := o.Cancel(ctx, "operator"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := o.Accept(ctx, "successor"); !errors.Is(err, ErrNoPendingOwner) {
		t.Fatalf("expected ErrNoPendingOwner after cancel, got %v", err)
	}
}

func TestOwnerRejectsEmptyIdentity(t *testing.T) {
	ctx := context.Background()
	o := NewOwner("")

	if o.IsPrivileged(ctx, "") {
		t.Error("empty identity must never be privileged")
	}
	if err := o.Propose(ctx, "", ""); !errors.Is(err, ErrInvalidOwner) {
		t.Errorf("expected ErrInvalidOwner, got %v", err)
	}
}

func TestAuthorizerFunc(t *testing.T) {
	var a Authorizer = AuthorizerFunc(func(_ context.Context, id string) bool { return id == "root" })
	if !a.IsPrivileged(context.Background(), "root") || a.IsPrivileged(context.Background(), "bob") {
		t.Error("AuthorizerFunc did not delegate")
	}
}
