package logbook

import (
	"context"
	"errors"

	"jiskefet/internal/ports"
)

func (a *FlpRoleAggregator) FindOne(ctx context.Context, flpName string, runNumber int64) (ports.FlpRole, error) {
	if err := checkContext(ctx); err != nil {
		return ports.FlpRole{}, err
	}
	if a.flps == nil {
		return ports.FlpRole{}, errors.New("flp role repository is required")
	}

	name, err := requireText(flpName, "flp name")
	if err != nil {
		return ports.FlpRole{}, err
	}
	return a.flps.GetFlpRole(ctx, name, runNumber)
}

// ListByRun returns the FLPs of a run ordered by name.
func (a *FlpRoleAggregator) ListByRun(ctx context.Context, runNumber int64) ([]ports.FlpRole, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := a.ready(); err != nil {
		return nil, err
	}

	if _, err := a.runs.GetRun(ctx, runNumber); err != nil {
		return nil, err
	}
	return a.flps.ListFlpRolesByRun(ctx, runNumber)
}
