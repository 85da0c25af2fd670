package controllers

import (
	"net/http"
	"strconv"

	"blackscholes-api/interfaces"
	"blackscholes-api/services"

	"github.com/gin-gonic/gin"
)

// ActivityController handles the read-only audit endpoints
type ActivityController struct {
	activityLogger *services.ActivityLogger
	storageService interfaces.StorageService
}

// NewActivityController creates a new activity controller
func NewActivityController(activityLogger *services.ActivityLogger, storage interfaces.StorageService) *ActivityController {
	return &ActivityController{
		activityLogger: activityLogger,
		storageService: storage,
	}
}

// RegisterRoutes registers the activity endpoints on the given router group
func (ac *ActivityController) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/activity", ac.HandleGetCurrentActivity)
	api.GET("/activity/logs", ac.HandleListActivityLogs)
	api.GET("/activity/:date", ac.HandleGetActivityByDate)
	api.GET("/calculations", ac.HandleRecentCalculations)
}

// HandleGetCurrentActivity returns the current day's activity log
// GET /api/activity
func (ac *ActivityController) HandleGetCurrentActivity(c *gin.Context) {
	log, err := ac.activityLogger.GetCurrentLog()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, log)
}

// HandleGetActivityByDate returns the activity log for a specific date
// GET /api/activity/:date
func (ac *ActivityController) HandleGetActivityByDate(c *gin.Context) {
	date := c.Param("date")

	log, err := ac.activityLogger.GetLogForDate(date)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, log)
}

// HandleListActivityLogs returns the list of available activity log dates
// GET /api/activity/logs
func (ac *ActivityController) HandleListActivityLogs(c *gin.Context) {
	dates, err := ac.activityLogger.ListAvailableLogs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"dates": dates,
		"count": len(dates),
	})
}

// HandleRecentCalculations lists recent calculation audit records
// GET /api/calculations?endpoint=heatmap&limit=50
func (ac *ActivityController) HandleRecentCalculations(c *gin.Context) {
	endpoint := c.Query("endpoint")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	records, err := ac.storageService.GetRecentCalculations(endpoint, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":        len(records),
		"calculations": records,
	})
}
