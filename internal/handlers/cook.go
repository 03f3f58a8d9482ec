package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pitwatch/internal/service"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Current cook status
// @Description  Read-only context bundle: readings per probe, stall state, model predictions, recent alerts and actions.
// @Tags         cook
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/cook/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	bundle, err := h.services.Status(c.Request.Context())
	if err != nil {
		h.log.Errorw("status failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load status"})
		return
	}
	c.JSON(http.StatusOK, bundle)
}

type actionRequest struct {
	Note string `json:"note" binding:"required"`
}

// @Summary      Report a user action
// @Description  Free-text note ("just added 10 briquettes"); feeds alert suppression.
// @Tags         cook
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/cook/actions [post]
// @Security     BearerAuth
func (h *Handler) addAction(c *gin.Context) {
	var input actionRequest
	if !h.bindJSONOrBadRequest(c, &input) {
		return
	}
	if err := h.services.AddAction(c.Request.Context(), input.Note); err != nil {
		h.log.Errorw("add action failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record action"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

// @Summary      End the cook
// @Tags         cook
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/cook/end [post]
// @Security     BearerAuth
func (h *Handler) endSession(c *gin.Context) {
	if err := h.services.EndSession(c.Request.Context()); err != nil {
		h.log.Errorw("end session failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to end session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

func parseQueryTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(layoutDateTime, s); err == nil {
		return t, nil
	}
	return time.Parse(layoutDate, s)
}

// @Summary      List cook events
// @Tags         logs
// @Produce      json
// @Param        from  query  string  false  "Start of range (RFC3339 or YYYY-MM-DD)"
// @Param        to    query  string  false  "End of range; date-only treated as end of day"
// @Param        type  query  string  false  "Event type"  Enums(SESSION_START,SESSION_END,ALERT,STALL,USER_ACTION,ERROR)
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	var filter service.LogFilter
	if qs := c.Query("from"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' time"})
			return
		}
		filter.From = t
	}
	if qs := c.Query("to"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' time"})
			return
		}
		if !strings.ContainsAny(qs, "T ") {
			t = t.Add(24*time.Hour - time.Nanosecond) // end of day inclusive
		}
		filter.To = t
	}
	filter.Type = c.Query("type")

	events, err := h.services.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}
