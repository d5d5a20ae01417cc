package middleware

import (
	"io"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Recovery turns a panic into a plain-text 500 carrying msg and records
// status for the middleware above it. The panic value and stack go to logger;
// request headers are never dumped.
func Recovery(logger *logrus.Logger, status, msg string) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.WithFields(logrus.Fields{
			"request_id": RequestIDFrom(c),
			"path":       c.Request.URL.Path,
			"panic":      recovered,
		}).Error("Recovered from panic")
		logger.Debugf("Panic stack:\n%s", debug.Stack())

		Reject(c, http.StatusInternalServerError, status, msg)
	})
}
