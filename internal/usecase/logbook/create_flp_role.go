package logbook

import (
	"context"
	"log/slog"

	"jiskefet/internal/bootstrap/logging"
	"jiskefet/internal/ports"
)

// Create registers a new FLP for a run with zeroed counters. An existing
// (flp name, run number) pair is a conflict and is left untouched.
func (a *FlpRoleAggregator) Create(ctx context.Context, input CreateFlpInput) (ports.FlpRole, error) {
	if err := checkContext(ctx); err != nil {
		return ports.FlpRole{}, err
	}
	if err := a.ready(); err != nil {
		return ports.FlpRole{}, err
	}

	flpName, err := requireText(input.FlpName, "flp name")
	if err != nil {
		return ports.FlpRole{}, err
	}
	hostname, err := requireText(input.Hostname, "flp hostname")
	if err != nil {
		return ports.FlpRole{}, err
	}
	if err := requireRunNumber(input.RunNumber); err != nil {
		return ports.FlpRole{}, err
	}

	unlock := a.locks.Lock(input.RunNumber)
	defer unlock()

	var created ports.FlpRole
	if err := a.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := a.runs.LockRun(txCtx, input.RunNumber); err != nil {
			return err
		}

		var err error
		created, err = a.flps.CreateFlpRole(txCtx, ports.FlpRole{
			FlpName:     flpName,
			RunNumber:   input.RunNumber,
			FlpHostname: hostname,
		})
		if err != nil {
			return err
		}

		_, err = a.recomputeTotals(txCtx, input.RunNumber)
		return err
	}); err != nil {
		return ports.FlpRole{}, err
	}

	logging.Info(flpLogCtx(ctx, flpName, input.RunNumber), "flp role created", slog.String("flp_hostname", hostname))
	return created, nil
}
