package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"clinic/internal/domain/session"
	"clinic/internal/platform/clinicapi"
)

type fakeEmployees struct {
	employees []clinicapi.Employee
	err       error
}

func (f fakeEmployees) ListEmployees(context.Context) ([]clinicapi.Employee, error) {
	return f.employees, f.err
}

func employeesFixture(t *testing.T) []clinicapi.Employee {
	t.Helper()
	var out []clinicapi.Employee
	payload := `[
	  {"_id":"e1","name":"Dilnoza","login":"dilnoza","password":"secret","category":{"_id":"c1"}},
	  {"_id":"e2","name":"Aziz","login":"aziz","password":"Secret","category":{"_id":"c2"}},
	  {"_id":"e3","name":"Twin A","login":"twin","password":"same"},
	  {"_id":"e4","name":"Twin B","login":"twin","password":"same"}
	]`
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return out
}

func TestMatchCredentials(t *testing.T) {
	employees := employeesFixture(t)

	got, err := MatchCredentials(employees, "dilnoza", "secret")
	if err != nil || got.ID != "e1" {
		t.Fatalf("expected e1, got %+v err=%v", got, err)
	}
	if _, err := MatchCredentials(employees, "aziz", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected case-sensitive mismatch, got %v", err)
	}
	if _, err := MatchCredentials(employees, "Dilnoza", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected case-sensitive login, got %v", err)
	}
	if _, err := MatchCredentials(employees, "twin", "same"); !errors.Is(err, ErrAmbiguousCredentials) {
		t.Fatalf("expected ambiguous match, got %v", err)
	}
}

func TestLoginResolveLogout(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	svc := NewService(fakeEmployees{employees: employeesFixture(t)}, store, "secret", time.Hour)

	token, sess, err := svc.Login(ctx, "dilnoza", "secret")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if sess.CategoryID != "c1" || sess.EmployeeID != "e1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if _, ok := sess.Profile.Lookup("password"); ok {
		t.Fatal("profile must not carry the password")
	}
	if string(sess.Profile.Password) != "" || string(sess.Profile.Login) != "" {
		t.Fatal("profile must not carry credentials")
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if claims.SessionID == "" || claims.EmployeeID != "e1" || claims.CategoryID != "c1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	user := UserContext{EmployeeID: claims.EmployeeID, CategoryID: claims.CategoryID, SessionID: claims.SessionID}

	resolved, err := svc.Resolve(ctx, user)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if resolved.ID != sess.ID || resolved.Profile.Name() != "Dilnoza" {
		t.Fatalf("unexpected resolved session: %+v", resolved)
	}

	if err := svc.Logout(ctx, user); err != nil {
		t.Fatalf("logout error: %v", err)
	}
	if _, err := svc.Resolve(ctx, user); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after logout, got %v", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := NewService(fakeEmployees{employees: employeesFixture(t)}, session.NewMemoryStore(), "secret", time.Hour)
	if _, _, err := svc.Login(context.Background(), "dilnoza", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for blank input, got %v", err)
	}
}

func TestLoginUpstreamFailure(t *testing.T) {
	upstreamErr := errors.Join(clinicapi.ErrUpstream, errors.New("boom"))
	svc := NewService(fakeEmployees{err: upstreamErr}, session.NewMemoryStore(), "secret", time.Hour)
	if _, _, err := svc.Login(context.Background(), "dilnoza", "secret"); !errors.Is(err, clinicapi.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestResolveExpiredSession(t *testing.T) {
	ctx := context.Background()
	svc := NewService(fakeEmployees{employees: employeesFixture(t)}, session.NewMemoryStore(), "secret", time.Hour)
	token, _, err := svc.Login(ctx, "dilnoza", "secret")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	claims, _ := ParseToken("secret", token)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Resolve(ctx, UserContext{EmployeeID: claims.EmployeeID, SessionID: claims.SessionID})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session to be rejected, got %v", err)
	}
}
