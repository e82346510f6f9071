package v1

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/civic_alerts/internal/models"
	"github.com/sirupsen/logrus"
)

// @Summary Live alert stream
// @Description Server-Sent Events stream. Each newly created alert is sent as one `data:` frame with the alert JSON.
// @Description Comment frames are sent on connect and as heartbeats. Alerts created before connecting are not replayed.
// @Tags Alerts
// @Produce text/event-stream
// @Security ApiKeyAuth
// @Success 200 {string} string "event stream"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /alerts/stream [get]
func (h *Handler) streamAlerts(c *gin.Context) {
	sub := h.stream.Subscribe()
	defer sub.Close()

	log := h.logger.WithFields(logrus.Fields{
		"method":        "streamAlerts",
		"subscriber_id": sub.ID(),
		"remote_addr":   c.ClientIP(),
	})

	w := c.Writer
	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := io.WriteString(w, ": connected\n\n"); err != nil {
		log.WithError(err).Warn("Failed to write stream preamble")
		return
	}
	w.Flush()
	sub.MarkStreaming()
	log.Info("Stream client connected")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			log.Info("Stream client disconnected")
			return
		case <-sub.Done():
			log.Info("Stream closed by broker")
			return
		case alert := <-sub.Events():
			if err := writeAlertEvent(w, alert); err != nil {
				log.WithError(err).Warn("Failed to write alert event")
				return
			}
			w.Flush()
		case <-ticker.C:
			if _, err := io.WriteString(w, ": heartbeat\n\n"); err != nil {
				log.WithError(err).Debug("Failed to write heartbeat")
				return
			}
			w.Flush()
		}
	}
}

// writeAlertEvent пишет один кадр SSE. json.Marshal не выдает переводов строк, поэтому хватает одной строки data.
func writeAlertEvent(w io.Writer, alert models.Alert) error {
	payload, err := json.Marshal(ModelToAlertResponse(&alert))
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
