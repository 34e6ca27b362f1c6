package api

import (
	"context"
	"net/http"
	"time"

	"roofscore/apps/go/scorer/common"
	"roofscore/apps/go/scorer/roofscore"
	"roofscore/apps/go/scorer/tasks"
	"roofscore/apps/go/scorer/types"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ScoreService reads and edits mission scores and images.
type ScoreService interface {
	GetScore(ctx context.Context, missionID string, includeHistory bool) (*types.MissionScore, error)
	CreateScore(ctx context.Context, missionID string, avgScore float64, rcif string) (*types.MissionScore, error)
	UpsertImage(ctx context.Context, image *types.MissionImage) error
	Revert(ctx context.Context, missionID string) error
	Submit(ctx context.Context, missionID string) (time.Time, error)
	GetImage(ctx context.Context, missionID, imageName string, view roofscore.ImageView) (*types.MissionImage, error)
	ListImages(ctx context.Context, missionID string, view roofscore.ImageView) ([]types.MissionImage, error)
}

// UpdateSubmitter queues score updates.
type UpdateSubmitter interface {
	Submit(ctx context.Context, missionID, userID, userEmail string, batch types.ScoreUpdateBatch) (*tasks.TaskHandle, error)
}

type Deps struct {
	Service   ScoreService
	Submitter UpdateSubmitter
	Status    common.StatusTracker
	Missions  common.MissionDetails
	// Metrics is served on /metrics when set.
	Metrics http.Handler
	Cors    []string
	Logger  *zerolog.Logger
}

// NewRouter builds the HTTP API.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Logger), cors(d.Cors))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	scores := &ScoreHandler{service: d.Service, submitter: d.Submitter}
	notifications := &NotificationHandler{status: d.Status, missions: d.Missions, logger: d.Logger}

	api := r.Group("/api/v1")
	{
		score := api.Group("/score")
		{
			score.POST("", scores.CreateScore)
			score.GET("/:version_id", scores.GetScore)
			score.GET("/:version_id/image", scores.ListImages)
			score.GET("/:version_id/image/:img_name", scores.GetImage)
			score.POST("/:version_id/image", scores.UpsertImage)
			score.POST("/:version_id/score-update", scores.UpdateScore)
			score.POST("/:version_id/revert-score", scores.Revert)
			score.POST("/:version_id/submit", scores.Submit)
		}

		notification := api.Group("/notification")
		{
			notification.GET("/complete-status", notifications.CompleteStatus)
			notification.POST("/set", notifications.SetNotification)
		}
	}
	return r
}
