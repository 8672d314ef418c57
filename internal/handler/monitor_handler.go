package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/markaggar/water-monitor-go/internal/baseline"
	"github.com/markaggar/water-monitor-go/internal/models"
	"github.com/markaggar/water-monitor-go/internal/service"
	"github.com/markaggar/water-monitor-go/pkg/response"
)

// MonitorHandler handles HTTP requests for the water monitor
type MonitorHandler struct {
	monitorService *service.MonitorService
}

// NewMonitorHandler creates a new monitor handler
func NewMonitorHandler(monitorService *service.MonitorService) *MonitorHandler {
	return &MonitorHandler{
		monitorService: monitorService,
	}
}

// ingestRequest is the sample feed payload
type ingestRequest struct {
	FlowRate         float64    `json:"flow_rate"`
	CumulativeVolume float64    `json:"cumulative_volume"`
	HotWaterActive   bool       `json:"hot_water_active"`
	Timestamp        *time.Time `json:"timestamp,omitempty"`

	OccupancyState string `json:"occupancy_state,omitempty"`
	PersonCount    int    `json:"person_count,omitempty"`
}

// IngestSample handles POST /api/v1/samples
func (h *MonitorHandler) IngestSample(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid sample payload: "+err.Error())
		return
	}

	ts := time.Now().UTC()
	if req.Timestamp != nil {
		ts = req.Timestamp.UTC()
	}

	sample := models.Sample{
		FlowRate:         req.FlowRate,
		CumulativeVolume: req.CumulativeVolume,
		HotWaterActive:   req.HotWaterActive,
		Timestamp:        ts,
	}
	occ := models.OccupancyInput{
		RawState:    req.OccupancyState,
		PersonCount: req.PersonCount,
	}

	events, snap := h.monitorService.IngestSample(sample, occ)
	response.Success(c, gin.H{
		"snapshot": snap,
		"events":   events,
	})
}

// Tick handles POST /api/v1/tick, advancing time-only state at the
// cadence the snapshot asked for
func (h *MonitorHandler) Tick(c *gin.Context) {
	now := time.Now().UTC()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "Invalid at parameter, expected RFC3339")
			return
		}
		now = parsed.UTC()
	}

	events, snap := h.monitorService.Tick(now)
	response.Success(c, gin.H{
		"snapshot": snap,
		"events":   events,
	})
}

// RunDaily handles POST /api/v1/daily-run, the host's daily tick
func (h *MonitorHandler) RunDaily(c *gin.Context) {
	summary, _ := h.monitorService.RunDaily(time.Now())
	response.Success(c, summary)
}

// GetSnapshot handles GET /api/v1/snapshot
func (h *MonitorHandler) GetSnapshot(c *gin.Context) {
	response.Success(c, h.monitorService.Snapshot())
}

// GetSessions handles GET /api/v1/sessions
func (h *MonitorHandler) GetSessions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		response.BadRequest(c, "Invalid limit parameter")
		return
	}

	sessions, err := h.monitorService.Sessions(limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, sessions)
}

// GetDailySummaries handles GET /api/v1/daily
func (h *MonitorHandler) GetDailySummaries(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if err != nil {
		response.BadRequest(c, "Invalid limit parameter")
		return
	}

	summaries, err := h.monitorService.DailySummaries(limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, summaries)
}

// GetLeaks handles GET /api/v1/leaks
func (h *MonitorHandler) GetLeaks(c *gin.Context) {
	response.Success(c, h.monitorService.Leaks(time.Now().UTC()))
}

// GetBaseline handles GET /api/v1/baseline
func (h *MonitorHandler) GetBaseline(c *gin.Context) {
	hour, err := strconv.Atoi(c.DefaultQuery("hour", strconv.Itoa(time.Now().Hour())))
	if err != nil || hour < 0 || hour > 23 {
		response.BadRequest(c, "Invalid hour parameter (0-23)")
		return
	}

	dayType := c.DefaultQuery("day_type", baseline.DayTypeWeekday)
	occClass := c.DefaultQuery("occupancy", "home")
	peopleBin := c.DefaultQuery("people_bin", "2")

	response.Success(c, h.monitorService.Baseline(hour, dayType, occClass, peopleBin))
}
