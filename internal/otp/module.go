package otp

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpsvc/internal/otp/inbound"
	"github.com/shandysiswandi/otpsvc/internal/otp/outbound/db"
	"github.com/shandysiswandi/otpsvc/internal/otp/outbound/mq"
	"github.com/shandysiswandi/otpsvc/internal/otp/usecase"
	"github.com/shandysiswandi/otpsvc/internal/pkg/clock"
	"github.com/shandysiswandi/otpsvc/internal/pkg/config"
	"github.com/shandysiswandi/otpsvc/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpsvc/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpsvc/internal/pkg/instrument"
	"github.com/shandysiswandi/otpsvc/internal/pkg/messaging"
	"github.com/shandysiswandi/otpsvc/internal/pkg/router"
	"github.com/shandysiswandi/otpsvc/internal/pkg/secrecy"
	"github.com/shandysiswandi/otpsvc/internal/pkg/uid"
	"github.com/shandysiswandi/otpsvc/internal/pkg/validator"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	Secrets     secrecy.Encryptor          `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

func New(ctx context.Context, dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	if dep.Config.GetBool("modules.otp.auto_migrate") {
		if err := db.Migrate(ctx, dep.DBConn); err != nil {
			return err
		}
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoMessaging: repoMsg,
		Idempotency:   dep.Idempotency,
		Secrets:       dep.Secrets,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	startSweep(ctx, dep, uc)

	return nil
}

// startSweep runs the periodic expiry sweep. Disabled when the interval is
// zero; single-instance deployments can lean on the past-expiry reject in the
// validator alone.
func startSweep(ctx context.Context, dep Dependency, uc *usecase.Usecase) {
	interval := dep.Config.GetMinute("modules.otp.sweep_interval_minutes")
	if interval <= 0 {
		return
	}

	dep.Goroutine.Go(ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := uc.SweepExpired(ctx); err != nil {
					slog.ErrorContext(ctx, "expiry sweep run failed", "error", err)
				}
			}
		}
	})
}
