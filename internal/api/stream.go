package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rockaxx/freegames/internal/aggregator"
	"github.com/rockaxx/freegames/internal/logger"
)

const sseContentType = "text/event-stream"

func (h *Handler) searchStream(c *gin.Context) {
	h.stream(c, aggregator.Request{Query: strings.TrimSpace(c.Query("q"))})
}

func (h *Handler) catalogStream(c *gin.Context) {
	h.stream(c, aggregator.Request{Catalog: true})
}

// stream writes every event of one aggregation as SSE until the stream ends
// or the client goes away.
func (h *Handler) stream(c *gin.Context, req aggregator.Request) {
	log := logger.FromContext(c.Request.Context())

	// Streams outlive the server write timeout.
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("Cannot lift write deadline for stream", logger.Error(err))
	}

	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)
	c.Writer.Flush()

	s := h.streams.Open(c.Request.Context(), req)
	written := 0
	for ev := range s.Events() {
		if err := writeEvent(c.Writer, ev); err != nil {
			log.Debug("SSE write failed (client likely disconnected)",
				logger.Error(err),
				logger.String("event_type", string(ev.Type)),
			)
			break
		}
		written++
	}

	log.Debug("SSE stream ended",
		logger.String("stream_id", s.ID()),
		logger.String("state", s.State().String()),
		logger.Int("events", written),
	)
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", sseContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// writeEvent writes "event: <type>\ndata: <json>\n\n" and flushes.
func writeEvent(w gin.ResponseWriter, ev aggregator.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	w.Flush()
	return nil
}
