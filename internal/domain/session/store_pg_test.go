package session

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"clinic/internal/platform/clinicapi"
	cryptoutil "clinic/internal/platform/crypto"
)

func testProfile(t *testing.T) clinicapi.Employee {
	t.Helper()
	var e clinicapi.Employee
	if err := json.Unmarshal([]byte(`{"_id":"e1","name":"Dilnoza","phone":"+998901112233","category":{"_id":"c1"}}`), &e); err != nil {
		t.Fatalf("profile fixture: %v", err)
	}
	return e
}

func TestPGStoreCreateSealsProfile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	crypto, err := cryptoutil.New(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("crypto: %v", err)
	}
	store := NewPGStore(mock, crypto)

	now := time.Now().UTC()
	sess := Session{ID: "s1", TokenHash: "h1", EmployeeID: "e1", CategoryID: "c1", Profile: testProfile(t), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WithArgs("s1", "h1", "e1", "c1", pgxmock.AnyArg(), now, now.Add(time.Hour)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.Create(context.Background(), sess); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	store := NewPGStore(mock, nil)
	profile, err := json.Marshal(testProfile(t))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "employee_id", "category_id", "profile_enc", "created_at", "expires_at", "revoked_at"}).
		AddRow("s1", "e1", "c1", profile, now, now.Add(time.Hour), (*time.Time)(nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions")).
		WithArgs("h1").
		WillReturnRows(rows)

	sess, err := store.Get(context.Background(), "h1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if sess.ID != "s1" || sess.CategoryID != "c1" || sess.Profile.Name() != "Dilnoza" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if !sess.LoggedIn(now) {
		t.Fatal("expected live session")
	}
}

func TestPGStoreGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := NewPGStore(mock, nil).Get(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestPGStoreRevoke(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	store := NewPGStore(mock, nil)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET revoked_at = now()")).
		WithArgs("h1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET revoked_at = now()")).
		WithArgs("h1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := store.Revoke(context.Background(), "h1"); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if err := store.Revoke(context.Background(), "h1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second revoke, got %v", err)
	}
}

func TestPGStoreDeleteExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	cutoff := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions")).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	deleted, err := NewPGStore(mock, nil).DeleteExpired(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteExpired returned error: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted, got %d", deleted)
	}
}
