package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"clinic/internal/platform/clinicapi"
	cryptoutil "clinic/internal/platform/crypto"
	"clinic/internal/platform/querier"
)

type PGStore struct {
	DB     querier.Querier
	Crypto *cryptoutil.Service
}

func NewPGStore(db querier.Querier, crypto *cryptoutil.Service) *PGStore {
	return &PGStore{DB: db, Crypto: crypto}
}

func (s *PGStore) Create(ctx context.Context, sess Session) error {
	profile, err := json.Marshal(sess.Profile)
	if err != nil {
		return fmt.Errorf("session: encode profile: %w", err)
	}
	sealed, err := s.Crypto.Encrypt(profile)
	if err != nil {
		return fmt.Errorf("session: seal profile: %w", err)
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO sessions (id, token_hash, employee_id, category_id, profile_enc, created_at, expires_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, sess.ID, sess.TokenHash, sess.EmployeeID, sess.CategoryID, sealed, sess.CreatedAt, sess.ExpiresAt)
	return err
}

func (s *PGStore) Get(ctx context.Context, tokenHash string) (Session, error) {
	out := Session{TokenHash: tokenHash}
	var sealed []byte
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, category_id, profile_enc, created_at, expires_at, revoked_at
    FROM sessions
    WHERE token_hash = $1
  `, tokenHash).Scan(&out.ID, &out.EmployeeID, &out.CategoryID, &sealed, &out.CreatedAt, &out.ExpiresAt, &out.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}

	plain, err := s.Crypto.Decrypt(sealed)
	if err != nil {
		return Session{}, fmt.Errorf("session: open profile: %w", err)
	}
	var profile clinicapi.Employee
	if err := json.Unmarshal(plain, &profile); err != nil {
		return Session{}, fmt.Errorf("session: decode profile: %w", err)
	}
	out.Profile = profile
	return out, nil
}

func (s *PGStore) Revoke(ctx context.Context, tokenHash string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL", tokenHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PGStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM sessions WHERE expires_at <= $1 OR revoked_at IS NOT NULL", before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	var one int
	return s.DB.QueryRow(ctx, "SELECT 1").Scan(&one)
}
