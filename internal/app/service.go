package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"letterforge/api/internal/auth"
	"letterforge/api/internal/authpw"
	"letterforge/api/internal/config"
	"letterforge/api/internal/draft"
	"letterforge/api/internal/email"
	"letterforge/api/internal/export"
	"letterforge/api/internal/llm"
	"letterforge/api/internal/store"
	"letterforge/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Synthetic    bool
	JTI          string
	ExpiresAt    time.Time
}

// dataStore is the Postgres surface the service needs.
type dataStore interface {
	GetUserByID(ctx context.Context, userID string) (store.User, error)
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
	ReadSnapshot(ctx context.Context, userID string) (*draft.Snapshot, error)
	WriteSnapshot(ctx context.Context, userID string, input *draft.Input, body string) error
	Ping(ctx context.Context) error
}

// sessionStore holds refresh tokens. Redis in production, Postgres as
// fallback; both expose the same methods.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (string, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// exportArchive stores rendered PDFs. Nil-able: deployments without
// object storage skip archival.
type exportArchive interface {
	Put(ctx context.Context, userID string, result *export.Result) (string, error)
}

// sessionEntry pairs a draft coordinator with the notification queue its
// toasts land in.
type sessionEntry struct {
	coordinator *draft.Coordinator
	notifier    *draft.Queue
	synthetic   bool
	lastSeen    time.Time
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	gateway  llm.Gateway
	archive  exportArchive
	authpw   *authpw.Service
	email    *email.Service

	mu     sync.Mutex
	drafts map[string]*sessionEntry
}

func New(cfg config.Config, dataStore dataStore, sessions sessionStore, gateway llm.Gateway, archive exportArchive, authSvc *authpw.Service, emailSvc *email.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		gateway:  gateway,
		archive:  archive,
		authpw:   authSvc,
		email:    emailSvc,
		drafts:   make(map[string]*sessionEntry),
	}
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// PingSessions checks the refresh-token store when it supports health
// checks. Both the Redis store and the Postgres fallback do.
func (s *Service) PingSessions(ctx context.Context) error {
	if p, ok := s.sessions.(interface{ Ping(ctx context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// SendVerificationEmail delivers the verification link, best effort.
func (s *Service) SendVerificationEmail(to, userName, token string) error {
	if !s.SMTPConfigured() {
		return nil
	}
	url := s.cfg.AppBaseURL + "/verify-email?token=" + token
	return s.email.SendVerificationEmail(to, userName, url)
}

// SendPasswordResetEmail delivers the reset link, best effort.
func (s *Service) SendPasswordResetEmail(to, userName, token string) error {
	if !s.SMTPConfigured() {
		return nil
	}
	url := s.cfg.AppBaseURL + "/reset-password?token=" + token
	return s.email.SendPasswordResetEmail(to, userName, url)
}

// CreateSession issues tokens for a signed-in user.
func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user.ID, user.DisplayName)
}

// EnterSyntheticSession creates a throwaway browsing session that is
// never backed by a user row. Its access token carries a synthetic
// claim, it gets no refresh token, and nothing it does is persisted.
func (s *Service) EnterSyntheticSession(name string) (Session, error) {
	if name == "" {
		name = "Guest"
	}
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")
	userID := util.NewID("guest")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:       userID,
		Name:      name,
		Synthetic: true,
		JTI:       jti,
		Exp:       expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    userID,
		UserName:  name,
		Synthetic: true,
		JTI:       jti,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) issueSession(ctx context.Context, userID, userName string) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  userID,
		Name: userName,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), userID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       userID,
		UserName:     userName,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}

	// Synthetic identities have no user row and no revocation record to
	// consult; the claims are the whole session.
	if claims.Synthetic {
		return Session{
			Token:     token,
			UserID:    claims.Sub,
			UserName:  claims.Name,
			Synthetic: true,
			JTI:       claims.JTI,
			ExpiresAt: time.Unix(claims.Exp, 0),
		}, nil
	}

	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	userID, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.CreateSession(ctx, userID)
}

// Logout revokes the tokens and tears down the draft coordinator, which
// cancels any pending autosave.
func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if !session.Synthetic {
		if session.JTI != "" {
			_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
		}
		if refreshToken != "" {
			_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
		}
	}
	s.closeDraft(session.UserID)
	return nil
}

// coordinatorFor returns the session's draft coordinator, creating and
// hydrating it on first use.
func (s *Service) coordinatorFor(ctx context.Context, session Session) (*sessionEntry, error) {
	now := time.Now()

	s.mu.Lock()
	stale := s.evictStaleSyntheticLocked(now)
	entry, ok := s.drafts[session.UserID]
	if !ok {
		notifier := &draft.Queue{}
		var snapshots draft.SnapshotStore
		if !session.Synthetic {
			snapshots = s.store
		} else {
			snapshots = discardStore{}
		}
		entry = &sessionEntry{
			coordinator: draft.NewCoordinator(draft.Identity{
				UserID:    session.UserID,
				Name:      session.UserName,
				Synthetic: session.Synthetic,
			}, s.gateway, snapshots, notifier, s.cfg.AutosaveDelay),
			notifier:  notifier,
			synthetic: session.Synthetic,
		}
		s.drafts[session.UserID] = entry
	}
	entry.lastSeen = now
	s.mu.Unlock()

	for _, old := range stale {
		old.coordinator.Close()
	}

	if err := entry.coordinator.Initialize(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

// evictStaleSyntheticLocked drops synthetic entries idle past the access
// token TTL. Synthetic sessions have no refresh token, so after that no
// valid token can reach the entry again. Real users keep theirs: their
// drafts are persisted and the entry is re-hydrated on the next access.
func (s *Service) evictStaleSyntheticLocked(now time.Time) []*sessionEntry {
	if s.cfg.AccessTTL <= 0 {
		return nil
	}
	var stale []*sessionEntry
	for userID, entry := range s.drafts {
		if entry.synthetic && now.Sub(entry.lastSeen) >= s.cfg.AccessTTL {
			stale = append(stale, entry)
			delete(s.drafts, userID)
		}
	}
	return stale
}

func (s *Service) closeDraft(userID string) {
	s.mu.Lock()
	entry, ok := s.drafts[userID]
	if ok {
		delete(s.drafts, userID)
	}
	s.mu.Unlock()
	if ok {
		entry.coordinator.Close()
	}
}

// DraftState hydrates on first access and returns the current state.
func (s *Service) DraftState(ctx context.Context, session Session) (draft.State, error) {
	entry, err := s.coordinatorFor(ctx, session)
	if err != nil {
		return draft.State{}, err
	}
	return entry.coordinator.State(), nil
}

func (s *Service) GenerateDraft(ctx context.Context, session Session, input draft.Input) (draft.State, error) {
	entry, err := s.coordinatorFor(ctx, session)
	if err != nil {
		return draft.State{}, err
	}
	if err := entry.coordinator.Generate(ctx, input); err != nil {
		return entry.coordinator.State(), err
	}
	return entry.coordinator.State(), nil
}

func (s *Service) ImproveDraft(ctx context.Context, session Session) (draft.State, error) {
	entry, err := s.coordinatorFor(ctx, session)
	if err != nil {
		return draft.State{}, err
	}
	if err := entry.coordinator.Improve(ctx); err != nil {
		return entry.coordinator.State(), err
	}
	return entry.coordinator.State(), nil
}

func (s *Service) EditDraft(ctx context.Context, session Session, body string) (draft.State, error) {
	entry, err := s.coordinatorFor(ctx, session)
	if err != nil {
		return draft.State{}, err
	}
	entry.coordinator.EditBody(body)
	return entry.coordinator.State(), nil
}

// DrainNotifications returns and clears the pending toasts for the
// session.
func (s *Service) DrainNotifications(ctx context.Context, session Session) ([]draft.Notification, error) {
	entry, err := s.coordinatorFor(ctx, session)
	if err != nil {
		return nil, err
	}
	items := entry.notifier.Drain()
	if items == nil {
		items = []draft.Notification{}
	}
	return items, nil
}

// ExportDraft renders the current letter to PDF. A blank or
// whitespace-only letter cannot be exported. Real users' exports are
// archived when object storage is configured; synthetic sessions are
// never archived.
func (s *Service) ExportDraft(ctx context.Context, session Session, tmpl export.Template) (*export.Result, error) {
	entry, err := s.coordinatorFor(ctx, session)
	if err != nil {
		return nil, err
	}
	state := entry.coordinator.State()
	if strings.TrimSpace(state.Body) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "INVALID_STATE", "There is no letter to export", nil)
	}
	if tmpl == "" {
		tmpl = export.TemplateClassic
	}

	title := "Letter"
	if state.Input != nil {
		title = string(state.Input.LetterType)
	}
	result, err := export.ExportPDF(export.Request{
		Body:     state.Body,
		Template: tmpl,
		Author:   session.UserName,
		Title:    title,
	})
	if err != nil {
		return nil, err
	}

	if s.archive != nil && !session.Synthetic {
		if _, err := s.archive.Put(ctx, session.UserID, result); err != nil {
			entry.notifier.Notify(draft.Notification{
				Kind:        draft.KindPersistenceFailure,
				Title:       "Archive Failed",
				Description: "The PDF was generated but could not be archived.",
			})
		}
	}
	return result, nil
}

// Shutdown closes every live coordinator, cancelling pending autosaves.
func (s *Service) Shutdown() {
	s.mu.Lock()
	entries := make([]*sessionEntry, 0, len(s.drafts))
	for _, entry := range s.drafts {
		entries = append(entries, entry)
	}
	s.drafts = make(map[string]*sessionEntry)
	s.mu.Unlock()

	for _, entry := range entries {
		entry.coordinator.Close()
	}
}

// discardStore backs synthetic sessions: reads find nothing and writes
// go nowhere. The coordinator never schedules saves for synthetic
// identities anyway, so writes here indicate a bug.
type discardStore struct{}

func (discardStore) ReadSnapshot(ctx context.Context, userID string) (*draft.Snapshot, error) {
	return nil, nil
}

func (discardStore) WriteSnapshot(ctx context.Context, userID string, input *draft.Input, body string) error {
	return fmt.Errorf("synthetic session must not persist")
}
