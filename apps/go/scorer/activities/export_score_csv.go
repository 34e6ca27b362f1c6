package activities

import (
	"context"

	"roofscore/apps/go/scorer/types"
)

var ExportScoreCsvName = "export_score_csv"

// ExportScoreCsv uploads the updated defect and score CSV files of a mission.
func (aCtx *Ctx) ExportScoreCsv(ctx context.Context, params types.ExportScoreCsvParams) (*types.ExportScoreCsvResults, error) {

	if aCtx.App.Exporter == nil {
		aCtx.App.Logger.Debug().Str("mission_id", params.MissionID).Msg("Object storage not configured, skipping export.")
		return &types.ExportScoreCsvResults{Keys: []string{}}, nil
	}

	keys, err := aCtx.App.Exporter.Export(ctx, params.MissionID)
	if err != nil {
		aCtx.App.Logger.Error().Err(err).Str("mission_id", params.MissionID).Msg("Could not export mission score.")
		return nil, applicationError("error exporting mission score", err)
	}
	return &types.ExportScoreCsvResults{Keys: keys}, nil
}
