package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/otpsvc/internal/otp/entity"
)

const createTokenSQL = `
INSERT INTO otp_tokens (id, user_id, kind, reason, state, secret, token_length, expires_at, counter, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func (s *DB) CreateToken(ctx context.Context, in entity.Token) (err error) {
	ctx, span := s.startSpan(ctx, "CreateToken")
	defer func() { s.endSpan(span, err) }()

	expiresAt := pgtype.Timestamptz{}
	if in.ExpiresAt != nil {
		expiresAt = pgtype.Timestamptz{Valid: true, Time: *in.ExpiresAt}
	}
	counter := pgtype.Int8{}
	if in.Counter != nil {
		counter = pgtype.Int8{Valid: true, Int64: int64(*in.Counter)}
	}

	_, err = s.conn.Exec(ctx, createTokenSQL,
		in.ID, in.UserID, int16(in.Kind), int16(in.Reason), int16(in.State),
		in.Secret, int16(in.TokenLength), expiresAt, counter, in.CreatedAt, in.UpdatedAt,
	)
	err = s.mapError(err)
	return err
}
