package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clinic/internal/domain/session"
	"clinic/internal/platform/clinicapi"
)

// EmployeeSource is the clinic API's employee listing.
type EmployeeSource interface {
	ListEmployees(ctx context.Context) ([]clinicapi.Employee, error)
}

type Service struct {
	Employees EmployeeSource
	Sessions  session.Store
	Secret    string
	TTL       time.Duration
	now       func() time.Time
}

func NewService(employees EmployeeSource, sessions session.Store, secret string, ttl time.Duration) *Service {
	return &Service{Employees: employees, Sessions: sessions, Secret: secret, TTL: ttl, now: time.Now}
}

// Authenticate finds the single employee whose login and password match.
func (s *Service) Authenticate(ctx context.Context, username, password string) (clinicapi.Employee, error) {
	if username == "" || password == "" {
		return clinicapi.Employee{}, ErrInvalidCredentials
	}
	employees, err := s.Employees.ListEmployees(ctx)
	if err != nil {
		return clinicapi.Employee{}, err
	}
	return MatchCredentials(employees, username, password)
}

// MatchCredentials is the pure part of Authenticate.
func MatchCredentials(employees []clinicapi.Employee, username, password string) (clinicapi.Employee, error) {
	var (
		found   clinicapi.Employee
		matches int
	)
	for _, e := range employees {
		if string(e.Login) != username {
			continue
		}
		if !CheckPassword(string(e.Password), password) {
			continue
		}
		found = e
		matches++
	}
	switch matches {
	case 0:
		return clinicapi.Employee{}, ErrInvalidCredentials
	case 1:
		return found, nil
	default:
		return clinicapi.Employee{}, ErrAmbiguousCredentials
	}
}

// Login authenticates and opens a session. The returned token carries only ids;
// the profile lives in the session store.
func (s *Service) Login(ctx context.Context, username, password string) (string, session.Session, error) {
	employee, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", session.Session{}, err
	}

	sessionSecret, err := GenerateSecret()
	if err != nil {
		return "", session.Session{}, fmt.Errorf("auth: session secret: %w", err)
	}
	now := s.now()
	sess := session.Session{
		ID:         uuid.NewString(),
		TokenHash:  HashToken(sessionSecret),
		EmployeeID: string(employee.ID),
		CategoryID: employee.CategoryID(),
		Profile:    employee.WithoutCredentials(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.TTL),
	}
	if err := s.Sessions.Create(ctx, sess); err != nil {
		return "", session.Session{}, fmt.Errorf("auth: create session: %w", err)
	}

	token, err := GenerateToken(s.Secret, Claims{
		EmployeeID: sess.EmployeeID,
		CategoryID: sess.CategoryID,
		SessionID:  sessionSecret,
	}, s.TTL)
	if err != nil {
		return "", session.Session{}, fmt.Errorf("auth: issue token: %w", err)
	}
	return token, sess, nil
}

// Resolve returns the live session behind user, or ErrSessionNotFound.
func (s *Service) Resolve(ctx context.Context, user UserContext) (session.Session, error) {
	if user.SessionID == "" {
		return session.Session{}, ErrSessionNotFound
	}
	sess, err := s.Sessions.Get(ctx, HashToken(user.SessionID))
	if errors.Is(err, session.ErrSessionNotFound) {
		return session.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return session.Session{}, err
	}
	if sess.EmployeeID != user.EmployeeID || !sess.LoggedIn(s.now()) {
		return session.Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) Logout(ctx context.Context, user UserContext) error {
	if user.SessionID == "" {
		return ErrSessionNotFound
	}
	err := s.Sessions.Revoke(ctx, HashToken(user.SessionID))
	if errors.Is(err, session.ErrSessionNotFound) {
		return ErrSessionNotFound
	}
	return err
}
