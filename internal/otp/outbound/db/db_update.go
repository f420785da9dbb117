package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpsvc/internal/otp/entity"
)

const consumeTokenSQL = `
UPDATE otp_tokens
SET state = $1, updated_at = now()
WHERE id = $2 AND state = $3`

// ConsumeToken moves one token from active to consumed. The condition on the
// current state makes the transition atomic under concurrent validators; only
// one caller observes true.
func (s *DB) ConsumeToken(ctx context.Context, id int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeToken")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, consumeTokenSQL, int16(entity.StateConsumed), id, int16(entity.StateActive))
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

const expireTokensSQL = `
UPDATE otp_tokens
SET state = $1, updated_at = now()
WHERE kind = $2 AND state = $3 AND expires_at < $4`

// ExpireTokens moves every time-based token past its expiry into the expired
// state and reports how many rows moved.
func (s *DB) ExpireTokens(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "ExpireTokens")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, expireTokensSQL,
		int16(entity.StateExpired), int16(entity.KindTOTP), int16(entity.StateActive), now)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}
