package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shandysiswandi/otpsvc/internal/otp/entity"
	"github.com/shandysiswandi/otpsvc/internal/pkg/clock"
	"github.com/shandysiswandi/otpsvc/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpsvc/internal/pkg/instrument"
	"github.com/shandysiswandi/otpsvc/internal/pkg/secrecy"
	"github.com/shandysiswandi/otpsvc/internal/pkg/uid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

// TokenIssuedEvent is emitted after a token has been durably created. It never
// carries the code or the secret; delivery channels recompute nothing and only
// learn that an issuance happened.
type TokenIssuedEvent struct {
	TokenID   int64
	UserID    int64
	Kind      string
	Reason    string
	IssuedAt  time.Time
	ExpiresAt *time.Time
}

type repoMessaging interface {
	PublishTokenIssued(ctx context.Context, msg TokenIssuedEvent) error
}

type repoDB interface {
	CreateToken(ctx context.Context, tok entity.Token) error
	FindActiveToken(ctx context.Context, userID int64, reason entity.Reason, kind entity.Kind) (*entity.Token, error)
	FindTokenByID(ctx context.Context, id int64) (*entity.Token, error)
	ConsumeToken(ctx context.Context, id int64) (bool, error)
	ExpireTokens(ctx context.Context, now time.Time) (int64, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	idemp         idempotency.Idempotency
	secrets       secrecy.Encryptor
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation

	sweptTotal atomic.Int64
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Idempotency   idempotency.Idempotency
	Secrets       secrecy.Encryptor
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		secrets:       dep.Secrets,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func issuanceKey(userID int64, reason entity.Reason, kind entity.Kind) string {
	return fmt.Sprintf("otp:issue:%d:%s:%s", userID, reason, kind)
}
