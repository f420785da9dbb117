// Package db is the pgx-backed token repository. The partial unique index on
// (user_id, reason, kind) where state is active is what actually enforces the
// single-active-token invariant; callers treat the mapped conflict error as
// authoritative.
package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpsvc/internal/otp/entity"
	"github.com/shandysiswandi/otpsvc/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsvc/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{
		conn: conn,
		ins:  ins,
	}
}

// - 23505 unique violation → goerror.ErrConflict
// - 23514 check violation → the record slipped past entity.Validate; surfaced as-is
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type tokenRow struct {
	ID          int64
	UserID      int64
	Kind        int16
	Reason      int16
	State       int16
	Secret      []byte
	TokenLength int16
	ExpiresAt   pgtype.Timestamptz
	Counter     pgtype.Int8
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r tokenRow) toEntity() *entity.Token {
	tok := &entity.Token{
		ID:          r.ID,
		UserID:      r.UserID,
		Kind:        entity.Kind(r.Kind).Ensure(),
		Reason:      entity.Reason(r.Reason).Ensure(),
		State:       entity.State(r.State).Ensure(),
		Secret:      r.Secret,
		TokenLength: int(r.TokenLength),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.ExpiresAt.Valid {
		t := r.ExpiresAt.Time
		tok.ExpiresAt = &t
	}
	if r.Counter.Valid {
		c := uint64(r.Counter.Int64)
		tok.Counter = &c
	}
	return tok
}

const tokenColumns = `id, user_id, kind, reason, state, secret, token_length, expires_at, counter, created_at, updated_at`

func scanToken(row pgx.Row) (*entity.Token, error) {
	var r tokenRow
	err := row.Scan(
		&r.ID, &r.UserID, &r.Kind, &r.Reason, &r.State, &r.Secret,
		&r.TokenLength, &r.ExpiresAt, &r.Counter, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r.toEntity(), nil
}
