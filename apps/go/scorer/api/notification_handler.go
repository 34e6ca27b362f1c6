package api

import (
	"net/http"

	"roofscore/apps/go/scorer/common"
	"roofscore/apps/go/scorer/types"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxDetailLookups bounds the concurrent mission detail requests of one listing.
const maxDetailLookups = 8

type NotificationHandler struct {
	status   common.StatusTracker
	missions common.MissionDetails
	logger   *zerolog.Logger
}

type SetNotificationRequest struct {
	VersionIDs []string `json:"version_ids" binding:"required"`
}

// CompleteStatus lists the finished score updates of the caller with their mission metadata
// GET /api/v1/notification/complete-status
func (h *NotificationHandler) CompleteStatus(c *gin.Context) {
	userID, _ := caller(c)
	if userID == "" {
		failure(c, http.StatusBadRequest, "user id is required")
		return
	}
	ctx := c.Request.Context()
	records, err := h.status.ListDone(ctx, userID)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]types.StatusNotification, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxDetailLookups)
	for i := range records {
		out[i].UpdateStatusRecord = records[i]
		if h.missions == nil {
			continue
		}
		g.Go(func() error {
			detail, err := h.missions.MissionDetail(gctx, records[i].VersionID)
			if err != nil {
				// listed without metadata rather than not listed
				h.logger.Warn().Err(err).Str("version_id", records[i].VersionID).Msg("unable to get mission detail")
				return nil
			}
			out[i].MissionData = detail
			return nil
		})
	}
	_ = g.Wait()

	success(c, http.StatusOK, out)
}

// SetNotification acknowledges finished updates so they are not listed again
// POST /api/v1/notification/set
func (h *NotificationHandler) SetNotification(c *gin.Context) {
	var req SetNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	userID, _ := caller(c)
	if userID == "" {
		failure(c, http.StatusBadRequest, "user id is required")
		return
	}
	n, err := h.status.Acknowledge(c.Request.Context(), userID, req.VersionIDs)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"acknowledged": n})
}
