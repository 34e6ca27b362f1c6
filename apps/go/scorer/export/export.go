package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strconv"

	"roofscore/apps/go/scorer/roofscore"
	"roofscore/apps/go/scorer/types"

	"github.com/iancoleman/strcase"
	"github.com/rs/zerolog"
)

const csvFolder = "extras/CSV_all"

// labels that do not follow the camel case of the class value
var labelOverrides = map[types.DefectClass]string{
	types.DefectRoofMold: "RoofMold",
}

// DefectLabel is the name of a defect class in exported reports.
func DefectLabel(c types.DefectClass) string {
	if label, ok := labelOverrides[c]; ok {
		return label
	}
	return strcase.ToCamel(string(c))
}

// Uploader stores the exported files next to the mission data.
type Uploader interface {
	MissionPrefix(rcif, missionID string) string
	Upload(ctx context.Context, key, contentType string, r io.Reader) error
}

// Source provides the effective mission state, implemented by roofscore.Service.
type Source interface {
	GetScore(ctx context.Context, missionID string, includeHistory bool) (*types.MissionScore, error)
	ListImages(ctx context.Context, missionID string, view roofscore.ImageView) ([]types.MissionImage, error)
}

type Exporter struct {
	service  Source
	uploader Uploader
	logger   *zerolog.Logger
}

func NewExporter(service Source, uploader Uploader, l *zerolog.Logger) *Exporter {
	return &Exporter{service: service, uploader: uploader, logger: l}
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DefectsCSV lists, per image, each defect class found once.
func DefectsCSV(images []types.MissionImage) ([]byte, error) {
	rows := make([][]string, 0)
	for i := range images {
		seen := map[string]struct{}{}
		for _, p := range images[i].Defects.Polygons {
			label := DefectLabel(p.DefectClass)
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			rows = append(rows, []string{images[i].ImageName, label})
		}
	}
	return writeCSV([]string{"image", "defect"}, rows)
}

// ScoresCSV starts with the mission average then lists the score of every image. An image left
// without defects scores 1.
func ScoresCSV(avgScore float64, images []types.MissionImage) ([]byte, error) {
	rows := make([][]string, 0, len(images)+1)
	rows = append(rows, []string{"avg_score", formatScore(avgScore)})
	for i := range images {
		score := images[i].Score
		if len(images[i].Defects.Polygons) == 0 {
			score = 1
		}
		rows = append(rows, []string{images[i].ImageName, formatScore(score)})
	}
	return writeCSV([]string{"image", "score"}, rows)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Keys returns the object names of the defects and scores reports of a mission.
func (e *Exporter) Keys(rcif, missionID string) (string, string) {
	folder := path.Join(e.uploader.MissionPrefix(rcif, missionID), csvFolder)
	return path.Join(folder, rcif+"_updated.csv"), path.Join(folder, rcif+"_score_updated.csv")
}

// Export writes the reports of the current effective state of a mission, defects filtered by the
// thresholds in force.
func (e *Exporter) Export(ctx context.Context, missionID string) ([]string, error) {
	score, err := e.service.GetScore(ctx, missionID, false)
	if err != nil {
		return nil, err
	}
	images, err := e.service.ListImages(ctx, missionID, roofscore.ViewFiltered)
	if err != nil {
		return nil, err
	}

	defects, err := DefectsCSV(images)
	if err != nil {
		return nil, fmt.Errorf("unable to write defects report: %w", err)
	}
	scores, err := ScoresCSV(score.EffectiveAvgScore(), images)
	if err != nil {
		return nil, fmt.Errorf("unable to write scores report: %w", err)
	}

	defectsKey, scoresKey := e.Keys(score.EmcRcif, missionID)
	files := []struct {
		key  string
		data []byte
	}{{defectsKey, defects}, {scoresKey, scores}}
	keys := make([]string, 0, len(files))
	for _, f := range files {
		if err = e.uploader.Upload(ctx, f.key, "text/csv", bytes.NewReader(f.data)); err != nil {
			return keys, err
		}
		keys = append(keys, f.key)
	}
	e.logger.Info().Str("mission_id", missionID).Strs("keys", keys).Msg("score reports exported")
	return keys, nil
}
