package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"roofscore/apps/go/scorer/roofscore"
	"roofscore/apps/go/scorer/types"

	"github.com/spf13/cobra"
)

// ImageReport is the offline score of one image.
type ImageReport struct {
	ImageName string `json:"img_name"`
	roofscore.Result
	Error string `json:"error,omitempty"`
}

type ScoreReport struct {
	AvgScore float64       `json:"avg_score"`
	Images   []ImageReport `json:"images"`
}

// ScoreCommand scores mission image documents without touching the database.
func ScoreCommand() *cobra.Command {
	var scaleW, scaleH int
	var thresholdsFile string
	cmd := &cobra.Command{
		Use:   "score [images.json]",
		Short: "Score mission images from a JSON file",
		Long:  `Score one mission image document, or a list of them, and print the scores as JSON.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := readImages(args[0])
			if err != nil {
				return err
			}
			var project *types.ThresholdSettings
			if thresholdsFile != "" {
				if project, err = readThresholds(thresholdsFile); err != nil {
					return err
				}
			}
			report := ScoreImages(roofscore.NewScorer(scaleW, scaleH), images, project)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().IntVar(&scaleW, "scale-w", roofscore.DefaultScaleW, "Tile columns of the scoring grid")
	cmd.Flags().IntVar(&scaleH, "scale-h", roofscore.DefaultScaleH, "Tile rows of the scoring grid")
	cmd.Flags().StringVarP(&thresholdsFile, "thresholds", "t", "", "JSON file with the project threshold settings")
	return cmd
}

// ScoreImages scores every image, an image that cannot be scored is reported and left out of the average.
func ScoreImages(scorer *roofscore.Scorer, images []types.MissionImage, project *types.ThresholdSettings) ScoreReport {
	report := ScoreReport{Images: make([]ImageReport, 0, len(images))}
	scores := make([]float64, 0, len(images))
	for i := range images {
		r := ImageReport{ImageName: images[i].ImageName}
		res, err := scorer.ScoreImage(&images[i], project)
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Result = res
			scores = append(scores, res.Score)
		}
		report.Images = append(report.Images, r)
	}
	report.AvgScore = roofscore.AverageScore(scores, 0)
	return report
}

func readImages(path string) ([]types.MissionImage, error) {
	b, err := readInput(path)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var images []types.MissionImage
		if err = json.Unmarshal(b, &images); err != nil {
			return nil, fmt.Errorf("cannot decode images: %w", err)
		}
		return images, nil
	}
	image := types.MissionImage{}
	if err = json.Unmarshal(b, &image); err != nil {
		return nil, fmt.Errorf("cannot decode image: %w", err)
	}
	return []types.MissionImage{image}, nil
}

func readThresholds(path string) (*types.ThresholdSettings, error) {
	b, err := readInput(path)
	if err != nil {
		return nil, err
	}
	settings := &types.ThresholdSettings{}
	if err = json.Unmarshal(b, settings); err != nil {
		return nil, fmt.Errorf("cannot decode threshold settings: %w", err)
	}
	if err = settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// readInput reads a file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
