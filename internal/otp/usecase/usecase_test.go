package usecase

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/otpsvc/internal/otp/entity"
	"github.com/shandysiswandi/otpsvc/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsvc/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpsvc/internal/pkg/instrument"
	"github.com/shandysiswandi/otpsvc/internal/pkg/secrecy"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqID struct {
	mu   sync.Mutex
	next int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

// fakeRepo is an in-memory repoDB mirroring the conditional-update semantics
// of the real pgx repository.
type fakeRepo struct {
	mu     sync.Mutex
	tokens map[int64]entity.Token

	createErr error
	findErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tokens: map[int64]entity.Token{}}
}

func (r *fakeRepo) CreateToken(_ context.Context, tok entity.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	for _, t := range r.tokens {
		if t.UserID == tok.UserID && t.Reason == tok.Reason && t.Kind == tok.Kind && t.State == entity.StateActive {
			return goerror.ErrConflict
		}
	}
	r.tokens[tok.ID] = tok
	return nil
}

func (r *fakeRepo) FindActiveToken(_ context.Context, userID int64, reason entity.Reason, kind entity.Kind) (*entity.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, t := range r.tokens {
		if t.UserID == userID && t.Reason == reason && t.Kind == kind && t.State == entity.StateActive {
			cp := t
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (r *fakeRepo) FindTokenByID(_ context.Context, id int64) (*entity.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := t
	return &cp, nil
}

func (r *fakeRepo) ConsumeToken(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[id]
	if !ok || t.State != entity.StateActive {
		return false, nil
	}
	t.State = entity.StateConsumed
	r.tokens[id] = t
	return true, nil
}

func (r *fakeRepo) ExpireTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.tokens {
		if t.Kind == entity.KindTOTP && t.State == entity.StateActive && t.ExpiresAt != nil && now.After(*t.ExpiresAt) {
			t.State = entity.StateExpired
			r.tokens[id] = t
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) stateOf(id int64) entity.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens[id].State
}

// fakeGuard is an in-memory issuance guard with SetNX-like semantics.
type fakeGuard struct {
	mu         sync.Mutex
	held       map[string]struct{}
	acquireErr error
	released   []string
}

func (g *fakeGuard) Acquire(_ context.Context, key string, _ time.Duration) (idempotency.State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.acquireErr != nil {
		return idempotency.StateError, g.acquireErr
	}
	if _, ok := g.held[key]; ok {
		return idempotency.StateInProgress, nil
	}
	if g.held == nil {
		g.held = map[string]struct{}{}
	}
	g.held[key] = struct{}{}
	return idempotency.StateNone, nil
}

func (g *fakeGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.held, key)
	g.released = append(g.released, key)
	return nil
}

type capturedEvents struct {
	mu     sync.Mutex
	events []TokenIssuedEvent
}

func (c *capturedEvents) PublishTokenIssued(_ context.Context, msg TokenIssuedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, msg)
	return nil
}

func newTestUsecase() (*Usecase, *fakeRepo, *fakeClock, *capturedEvents) {
	repo := newFakeRepo()
	clk := &fakeClock{now: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)}
	events := &capturedEvents{}

	uc := New(Dependency{
		RepoDB:        repo,
		RepoMessaging: events,
		Secrets:       secrecy.NewAESGCMEncryptor(secrecy.StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{0x5a}, 32)}),
		UID:           &seqID{},
		Clock:         clk,
		Instrument:    instrument.NewNoop(),
	})
	return uc, repo, clk, events
}

// flipDigit returns a code of the same width that differs in the last digit.
func flipDigit(code string) string {
	b := []byte(code)
	last := len(b) - 1
	b[last] = '0' + (b[last]-'0'+1)%10
	return string(b)
}
