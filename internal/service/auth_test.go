package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PaulBabatuyi/semx/internal/apperr"
)

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	first := f.register(t, "Alice", "alice@x.edu")
	if first.User.Rating != DefaultRating || first.User.IsAvailable {
		t.Fatalf("unexpected defaults: %+v", first.User)
	}
	if !strings.Contains(first.User.Avatar, "seed=Alice") {
		t.Fatalf("avatar = %q", first.User.Avatar)
	}

	_, err := f.svc.Auth.Register(context.Background(), RegisterInput{
		Name: "Impostor", Email: "  ALICE@x.edu ", CollegeEmail: "a@x.edu", Password: "pw",
	})
	wantKind(t, err, apperr.KindConflict)
}

func TestRegisterRequiresAllFields(t *testing.T) {
	f := newFixture(t)
	cases := []RegisterInput{
		{Email: "a@x.edu", CollegeEmail: "a@x.edu", Password: "pw"},
		{Name: "A", CollegeEmail: "a@x.edu", Password: "pw"},
		{Name: "A", Email: "a@x.edu", Password: "pw"},
		{Name: "A", Email: "a@x.edu", CollegeEmail: "a@x.edu"},
		{Name: "   ", Email: "a@x.edu", CollegeEmail: "a@x.edu", Password: "pw"},
	}
	for i, in := range cases {
		_, err := f.svc.Auth.Register(context.Background(), in)
		wantKind(t, err, apperr.KindValidation)
		if err.Error() != "All fields are required" {
			t.Fatalf("case %d: message = %q", i, err.Error())
		}
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "Alice", "alice@x.edu")

	_, err := f.svc.Auth.Login(context.Background(), LoginInput{Email: "alice@x.edu", Password: "wrong"})
	wantKind(t, err, apperr.KindAuth)

	_, err = f.svc.Auth.Login(context.Background(), LoginInput{Email: "nobody@x.edu", Password: "pw-Alice"})
	wantKind(t, err, apperr.KindAuth)

	sess, err := f.svc.Auth.Login(context.Background(), LoginInput{Email: "Alice@X.edu", Password: "pw-Alice"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	claims, err := f.svc.Auth.Authenticate(sess.Token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if claims.UserID != reg.User.ID || claims.Email != "alice@x.edu" {
		t.Fatalf("claims = %+v", claims)
	}

	me, err := f.svc.Auth.Me(context.Background(), claims.UserID)
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if me.Email != "alice@x.edu" {
		t.Fatalf("me = %+v", me)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "Alice", "alice@x.edu")

	_, err := f.svc.Auth.Authenticate("")
	wantKind(t, err, apperr.KindAuth)

	_, err = f.svc.Auth.Authenticate("garbage")
	wantKind(t, err, apperr.KindInvalidToken)

	f.clock.Advance(7*24*time.Hour + time.Minute)
	_, err = f.svc.Auth.Authenticate(reg.Token)
	wantKind(t, err, apperr.KindInvalidToken)
}

func TestMeUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Auth.Me(context.Background(), "ghost")
	wantKind(t, err, apperr.KindNotFound)
}
