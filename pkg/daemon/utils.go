package daemon

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// noisyPaths are hit many times per second by sensors and scrapers. Their
// successful requests are only logged at trace level.
var noisyPaths = map[string]bool{
	"/sample":  true,
	"/frame":   true,
	"/metrics": true,
}

// ginLogger is the logrus access log for the daemon API.
func ginLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// other handler can change c.Path so:
		path := c.Request.URL.Path
		start := time.Now()
		c.Next()
		latency := int(math.Ceil(float64(time.Since(start).Nanoseconds()) / 1e6))
		statusCode := c.Writer.Status()
		dataLength := max(c.Writer.Size(), 0)

		entry := logger.WithFields(logrus.Fields{
			"statusCode": statusCode,
			"latency":    latency,
			"method":     c.Request.Method,
			"path":       path,
			"dataLength": dataLength,
		})

		if len(c.Errors) > 0 {
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
			return
		}

		msg := fmt.Sprintf("%s %s %d (%dms)", c.Request.Method, path, statusCode, latency)
		switch {
		case statusCode >= http.StatusInternalServerError:
			entry.Error(msg)
		case statusCode >= http.StatusBadRequest:
			entry.Warn(msg)
		case noisyPaths[path]:
			entry.Trace(msg)
		default:
			entry.Debug(msg)
		}
	}
}
