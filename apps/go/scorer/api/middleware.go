package api

import (
	"strings"
	"time"

	"roofscore/packages/go/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"
)

// requestLogger logs every request once it is served.
func requestLogger(l *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		status := c.Writer.Status()
		ev := l.Debug()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("method", c.Request.Method).
			Str("path", path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request served")
	}
}

// cors allows the configured origins, every origin when the list holds "*".
func cors(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (utils.StringInSlice("*", origins) || utils.StringInSlice(origin, origins)) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", strings.Join([]string{"Content-Type", "Authorization", HeaderUserID, HeaderUserEmail}, ", "))
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// caller returns the identity set by the authenticating proxy in front of the API.
func caller(c *gin.Context) (userID, userEmail string) {
	userID = c.GetHeader(HeaderUserID)
	if userID == "" {
		userID = c.Query("user_id")
	}
	return userID, c.GetHeader(HeaderUserEmail)
}
