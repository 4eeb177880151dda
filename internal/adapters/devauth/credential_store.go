package devauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	domainauth "github.com/nomocars/nomo-api/internal/domain/auth"
	"github.com/nomocars/nomo-api/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenUseID      = "id"
	tokenUseSession = "session"
	idTokenTTL      = time.Hour
	issuer          = "nomo-devauth"
)

var _ ports.CredentialStore = (*CredentialStore)(nil)

// StoreConfig controls the in-memory credential store.
type StoreConfig struct {
	// Secret signs HS256 tokens. Required.
	Secret string
	// AutoVerifyEmail marks new email credentials as verified on creation.
	AutoVerifyEmail bool
	// LinkBaseURL prefixes verification and reset links.
	LinkBaseURL string
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Now        func() time.Time
}

type user struct {
	uid         string
	email       string
	hash        []byte
	displayName string
	verified    bool
	method      domainauth.Method
	// generation is bumped by RevokeSessions; older session tokens stop verifying.
	generation int
}

type tokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
	Method        string `json:"method"`
	Use           string `json:"use"`
	Generation    int    `json:"gen"`
	jwt.RegisteredClaims
}

// CredentialStore is an in-memory ports.CredentialStore for local development
// and tests. Passwords are bcrypt hashed; tokens are HS256 JWTs.
type CredentialStore struct {
	mu      sync.Mutex
	users   map[string]*user
	byEmail map[string]string

	secret     []byte
	autoVerify bool
	linkBase   string
	cost       int
	now        func() time.Time
}

// NewCredentialStore creates an empty store.
func NewCredentialStore(cfg StoreConfig) (*CredentialStore, error) {
	if cfg.Secret == "" {
		return nil, errors.New("dev auth: signing secret is required")
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &CredentialStore{
		users:      make(map[string]*user),
		byEmail:    make(map[string]string),
		secret:     []byte(cfg.Secret),
		autoVerify: cfg.AutoVerifyEmail,
		linkBase:   strings.TrimSuffix(cfg.LinkBaseURL, "/"),
		cost:       cost,
		now:        now,
	}, nil
}

func (s *CredentialStore) CreateCredential(_ context.Context, in ports.NewCredential) (domainauth.Identity, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return domainauth.Identity{}, errors.New("dev auth: email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return domainauth.Identity{}, ports.ErrEmailExists
	}
	u := &user{
		uid:         uuid.NewString(),
		email:       email,
		hash:        hash,
		displayName: in.DisplayName,
		verified:    s.autoVerify,
		method:      domainauth.MethodEmail,
	}
	s.users[u.uid] = u
	s.byEmail[email] = u.uid
	return s.identity(u, time.Time{}), nil
}

func (s *CredentialStore) SignInWithPassword(_ context.Context, email, password string) (ports.SignInResult, error) {
	s.mu.Lock()
	u := s.users[s.byEmail[strings.ToLower(strings.TrimSpace(email))]]
	s.mu.Unlock()
	if u == nil || u.hash == nil {
		return ports.SignInResult{}, ports.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return ports.SignInResult{}, ports.ErrInvalidCredentials
	}
	return s.signIn(u, false)
}

// SignInWithAssertion trusts the asserted email; unknown emails get a new,
// verified google credential.
func (s *CredentialStore) SignInWithAssertion(_ context.Context, in ports.FederatedAssertion) (ports.SignInResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.IDToken == "" || email == "" {
		return ports.SignInResult{}, ports.ErrInvalidToken
	}
	s.mu.Lock()
	u := s.users[s.byEmail[email]]
	created := false
	if u == nil {
		u = &user{
			uid:         uuid.NewString(),
			email:       email,
			displayName: strings.TrimSpace(in.FirstName + " " + in.LastName),
			verified:    true,
			method:      domainauth.MethodGoogle,
		}
		s.users[u.uid] = u
		s.byEmail[email] = u.uid
		created = true
	}
	s.mu.Unlock()
	return s.signIn(u, created)
}

func (s *CredentialStore) signIn(u *user, created bool) (ports.SignInResult, error) {
	s.mu.Lock()
	snapshot := *u
	s.mu.Unlock()
	tok, exp, err := s.sign(&snapshot, tokenUseID, idTokenTTL)
	if err != nil {
		return ports.SignInResult{}, err
	}
	return ports.SignInResult{Identity: s.identity(&snapshot, exp), IDToken: tok, IsNewUser: created}, nil
}

func (s *CredentialStore) VerifyIDToken(_ context.Context, idToken string) (domainauth.Identity, error) {
	_, id, err := s.verify(idToken, tokenUseID)
	return id, err
}

func (s *CredentialStore) MintSession(_ context.Context, idToken string, ttl time.Duration) (string, error) {
	c, _, err := s.verify(idToken, tokenUseID)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	u, ok := s.users[c.Subject]
	var snapshot user
	if ok {
		snapshot = *u
	}
	s.mu.Unlock()
	if !ok {
		return "", ports.ErrInvalidToken
	}
	tok, _, err := s.sign(&snapshot, tokenUseSession, ttl)
	return tok, err
}

func (s *CredentialStore) VerifySession(_ context.Context, sessionToken string) (domainauth.Identity, error) {
	c, id, err := s.verify(sessionToken, tokenUseSession)
	if err != nil {
		return domainauth.Identity{}, err
	}
	s.mu.Lock()
	u, ok := s.users[c.Subject]
	revoked := ok && c.Generation != u.generation
	s.mu.Unlock()
	if !ok || revoked {
		return domainauth.Identity{}, ports.ErrInvalidToken
	}
	return id, nil
}

func (s *CredentialStore) RevokeSessions(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return ports.ErrCredentialNotFound
	}
	u.generation++
	return nil
}

func (s *CredentialStore) DeleteCredential(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return ports.ErrCredentialNotFound
	}
	delete(s.byEmail, u.email)
	delete(s.users, uid)
	return nil
}

func (s *CredentialStore) EmailVerificationLink(_ context.Context, email string) (string, error) {
	return s.link("/dev/verify-email", email)
}

func (s *CredentialStore) PasswordResetLink(_ context.Context, email string) (string, error) {
	return s.link("/dev/reset-password", email)
}

// MarkEmailVerified flips email_verified for the credential with email.
func (s *CredentialStore) MarkEmailVerified(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[s.byEmail[strings.ToLower(strings.TrimSpace(email))]]
	if u == nil {
		return ports.ErrCredentialNotFound
	}
	u.verified = true
	return nil
}

// Has reports whether a credential with uid exists.
func (s *CredentialStore) Has(uid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[uid]
	return ok
}

func (s *CredentialStore) link(path, email string) (string, error) {
	s.mu.Lock()
	uid, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	s.mu.Unlock()
	if !ok {
		return "", ports.ErrCredentialNotFound
	}
	q := url.Values{"uid": {uid}, "code": {uuid.NewString()}}
	return s.linkBase + path + "?" + q.Encode(), nil
}

func (s *CredentialStore) sign(u *user, use string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(ttl)
	c := tokenClaims{
		Email:         u.email,
		EmailVerified: u.verified,
		Name:          u.displayName,
		Method:        string(u.method),
		Use:           use,
		Generation:    u.generation,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", use, err)
	}
	return tok, exp, nil
}

func (s *CredentialStore) verify(raw, use string) (*tokenClaims, domainauth.Identity, error) {
	if raw == "" {
		return nil, domainauth.Identity{}, ports.ErrInvalidToken
	}
	var c tokenClaims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil || c.Use != use || c.Subject == "" {
		return nil, domainauth.Identity{}, ports.ErrInvalidToken
	}
	id := domainauth.Identity{
		UserID:        c.Subject,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		DisplayName:   c.Name,
		Method:        domainauth.Method(c.Method),
		ExpiresAt:     c.ExpiresAt.Time,
	}
	return &c, id, nil
}

func (s *CredentialStore) identity(u *user, exp time.Time) domainauth.Identity {
	return domainauth.Identity{
		UserID:        u.uid,
		Email:         u.email,
		EmailVerified: u.verified,
		DisplayName:   u.displayName,
		Method:        u.method,
		ExpiresAt:     exp,
	}
}
