package db

import (
	"context"

	"github.com/shandysiswandi/otpsvc/internal/otp/entity"
)

const findActiveTokenSQL = `
SELECT ` + tokenColumns + `
FROM otp_tokens
WHERE user_id = $1 AND reason = $2 AND kind = $3 AND state = $4`

func (s *DB) FindActiveToken(ctx context.Context, userID int64, reason entity.Reason, kind entity.Kind) (_ *entity.Token, err error) {
	ctx, span := s.startSpan(ctx, "FindActiveToken")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, findActiveTokenSQL, userID, int16(reason), int16(kind), int16(entity.StateActive))
	tok, err := scanToken(row)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return tok, nil
}

const findTokenByIDSQL = `
SELECT ` + tokenColumns + `
FROM otp_tokens
WHERE id = $1`

func (s *DB) FindTokenByID(ctx context.Context, id int64) (_ *entity.Token, err error) {
	ctx, span := s.startSpan(ctx, "FindTokenByID")
	defer func() { s.endSpan(span, err) }()

	tok, err := scanToken(s.conn.QueryRow(ctx, findTokenByIDSQL, id))
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return tok, nil
}
