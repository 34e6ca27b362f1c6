package api

import (
	"net/http"
	"strconv"

	"roofscore/apps/go/scorer/roofscore"
	"roofscore/apps/go/scorer/types"

	"github.com/gin-gonic/gin"
)

type ScoreHandler struct {
	service   ScoreService
	submitter UpdateSubmitter
}

type CreateScoreRequest struct {
	MissionID string  `json:"mission_id" binding:"required"`
	AvgScore  float64 `json:"avg_score"`
	EmcRcif   string  `json:"emc_rcif"`
}

// queryBool reads an optional boolean query parameter.
func queryBool(c *gin.Context, key string) (bool, bool) {
	v := c.Query(key)
	if v == "" {
		return false, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		failure(c, http.StatusBadRequest, "invalid "+key)
		return false, false
	}
	return b, true
}

func imageView(c *gin.Context) (roofscore.ImageView, bool) {
	original, ok := queryBool(c, "is_original")
	if !ok {
		return 0, false
	}
	filtered, ok := queryBool(c, "is_filter_threshold")
	if !ok {
		return 0, false
	}
	switch {
	case original:
		return roofscore.ViewOriginal, true
	case filtered:
		return roofscore.ViewFiltered, true
	}
	return roofscore.ViewEffective, true
}

// CreateScore registers the initial score of a mission version
// POST /api/v1/score
func (h *ScoreHandler) CreateScore(c *gin.Context) {
	var req CreateScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	score, err := h.service.CreateScore(c.Request.Context(), req.MissionID, req.AvgScore, req.EmcRcif)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusCreated, score)
}

// GetScore returns the mission score, its whole update history when need_updates is set
// GET /api/v1/score/:version_id
func (h *ScoreHandler) GetScore(c *gin.Context) {
	history, ok := queryBool(c, "need_updates")
	if !ok {
		return
	}
	score, err := h.service.GetScore(c.Request.Context(), c.Param("version_id"), history)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, score)
}

// ListImages returns the mission images without their geometry
// GET /api/v1/score/:version_id/image
func (h *ScoreHandler) ListImages(c *gin.Context) {
	view, ok := imageView(c)
	if !ok {
		return
	}
	images, err := h.service.ListImages(c.Request.Context(), c.Param("version_id"), view)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]types.MissionImage, len(images))
	for i := range images {
		out[i] = images[i].Summary()
	}
	success(c, http.StatusOK, out)
}

// GetImage returns one image, matched by file name stem
// GET /api/v1/score/:version_id/image/:img_name
func (h *ScoreHandler) GetImage(c *gin.Context) {
	view, ok := imageView(c)
	if !ok {
		return
	}
	image, err := h.service.GetImage(c.Request.Context(), c.Param("version_id"), c.Param("img_name"), view)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, image)
}

// UpsertImage stores the detection output of an image
// POST /api/v1/score/:version_id/image
func (h *ScoreHandler) UpsertImage(c *gin.Context) {
	var image types.MissionImage
	if err := c.ShouldBindJSON(&image); err != nil {
		failure(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	image.MissionID = c.Param("version_id")
	if err := h.service.UpsertImage(c.Request.Context(), &image); err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, image.Summary())
}

// UpdateScore queues a score update batch and returns its task handle
// POST /api/v1/score/:version_id/score-update
func (h *ScoreHandler) UpdateScore(c *gin.Context) {
	var batch types.ScoreUpdateBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		failure(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	userID, userEmail := caller(c)
	handle, err := h.submitter.Submit(c.Request.Context(), c.Param("version_id"), userID, userEmail, batch)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusAccepted, handle)
}

// Revert drops the update history of the mission
// POST /api/v1/score/:version_id/revert-score
func (h *ScoreHandler) Revert(c *gin.Context) {
	missionID := c.Param("version_id")
	if err := h.service.Revert(c.Request.Context(), missionID); err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"mission_id": missionID})
}

// Submit marks the mission score as submitted
// POST /api/v1/score/:version_id/submit
func (h *ScoreHandler) Submit(c *gin.Context) {
	missionID := c.Param("version_id")
	at, err := h.service.Submit(c.Request.Context(), missionID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"mission_id": missionID, "submitted_date": at})
}
