package daemon

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rcpd/gridlevel/pkg/config"
	"github.com/rcpd/gridlevel/pkg/events"
	"github.com/rcpd/gridlevel/pkg/sensor"
	"github.com/rcpd/gridlevel/pkg/types"
	"github.com/rcpd/gridlevel/pkg/version"
)

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getStatus(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, trk.status())
}

func setAdaptive(c *gin.Context) {
	var a bool
	if err := c.BindJSON(&a); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetAdaptiveThresholding(a)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set adaptive thresholding to %t", a)
	publishSettings()

	c.IndentedJSON(http.StatusCreated, "ok")
}

func setGuides(c *gin.Context) {
	var g bool
	if err := c.BindJSON(&g); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetGuidesEnabled(g)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set guides enabled to %t", g)
	publishSettings()

	c.IndentedJSON(http.StatusCreated, "ok")
}

func publishSettings() {
	sseHub.Publish(events.SettingsChanged, events.SettingsChangedEvent{
		Adaptive: conf.AdaptiveThresholding(),
		Guides:   conf.GuidesEnabled(),
		Ts:       time.Now().Unix(),
	})
}

func postSample(c *gin.Context) {
	b, err := c.GetRawData()
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	s, err := sensor.DecodeSample(b)
	if err != nil {
		trk.skip(err)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	c.IndentedJSON(http.StatusOK, trk.process(c.Request.Context(), s))
}

func postFrame(c *gin.Context) {
	var f types.Frame
	if err := c.BindJSON(&f); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	resp, err := trk.observeFrame(f)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusOK, resp)
}

func postReset(c *gin.Context) {
	id := trk.reset()
	logrus.WithField("sessionId", id).Info("centering session reset")
	c.IndentedJSON(http.StatusCreated, id)
}

func getEvents(c *gin.Context) {
	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	// Send headers now so clients know the subscription is live.
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		}
	})
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
