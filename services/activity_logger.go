package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ActivityLogger records calculation requests to daily JSON files
type ActivityLogger struct {
	logger     *logrus.Logger
	logDir     string
	mu         sync.Mutex
	currentLog *DailyActivityLog
}

// DailyActivityLog represents a day's worth of calculation activity
type DailyActivityLog struct {
	Date       string                `json:"date"`
	Summary    DailySummary          `json:"summary"`
	Activities []CalculationActivity `json:"activities"`
}

// DailySummary provides high-level stats for the day
type DailySummary struct {
	TotalRequests int `json:"total_requests"`
	Calculations  int `json:"calculations"`
	Heatmaps      int `json:"heatmaps"`
	Errors        int `json:"errors"`
}

// CalculationActivity represents a single calculation request
type CalculationActivity struct {
	Timestamp  time.Time              `json:"timestamp"`
	Endpoint   string                 `json:"endpoint"`
	Params     map[string]interface{} `json:"params"`
	DurationMs int64                  `json:"duration_ms"`
	Status     string                 `json:"status"`
}

// NewActivityLogger creates a new activity logger
func NewActivityLogger(logDir string) *ActivityLogger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Ensure log directory exists
	if err := os.MkdirAll(logDir, 0755); err != nil {
		logger.WithError(err).Error("Failed to create activity log directory")
	}

	return &ActivityLogger{
		logger: logger,
		logDir: logDir,
	}
}

// LogCalculation records one calculation request. Handlers run concurrently,
// so the in-memory log is guarded by a mutex.
func (al *ActivityLogger) LogCalculation(endpoint string, params map[string]interface{}, duration time.Duration, status string) error {
	al.mu.Lock()
	defer al.mu.Unlock()

	date := time.Now().Format("2006-01-02")
	if al.currentLog == nil || al.currentLog.Date != date {
		al.currentLog = &DailyActivityLog{
			Date:       date,
			Activities: []CalculationActivity{},
		}
	}

	activity := CalculationActivity{
		Timestamp:  time.Now(),
		Endpoint:   endpoint,
		Params:     params,
		DurationMs: duration.Milliseconds(),
		Status:     status,
	}

	al.currentLog.Activities = append(al.currentLog.Activities, activity)
	al.currentLog.Summary.TotalRequests++
	switch endpoint {
	case "calculate":
		al.currentLog.Summary.Calculations++
	case "heatmap":
		al.currentLog.Summary.Heatmaps++
	}
	if status != "ok" {
		al.currentLog.Summary.Errors++
	}

	al.logger.WithFields(logrus.Fields{
		"endpoint":    endpoint,
		"duration_ms": activity.DurationMs,
		"status":      status,
	}).Info("Calculation request")

	return al.saveCurrentLog()
}

// GetCurrentLog returns a snapshot of the current day's activity log
func (al *ActivityLogger) GetCurrentLog() (*DailyActivityLog, error) {
	al.mu.Lock()
	defer al.mu.Unlock()

	if al.currentLog != nil {
		return al.currentLog.snapshot(), nil
	}

	return al.loadLog(time.Now().Format("2006-01-02"))
}

// GetLogForDate returns the activity log for a specific date (YYYY-MM-DD)
func (al *ActivityLogger) GetLogForDate(date string) (*DailyActivityLog, error) {
	al.mu.Lock()
	defer al.mu.Unlock()

	if al.currentLog != nil && al.currentLog.Date == date {
		return al.currentLog.snapshot(), nil
	}

	return al.loadLog(date)
}

// snapshot copies the log so callers can serialize it after the mutex is
// released while new requests keep appending to the live log
func (l *DailyActivityLog) snapshot() *DailyActivityLog {
	copied := *l
	copied.Activities = make([]CalculationActivity, len(l.Activities))
	copy(copied.Activities, l.Activities)
	return &copied
}

// ListAvailableLogs returns the dates that have activity logs
func (al *ActivityLogger) ListAvailableLogs() ([]string, error) {
	entries, err := os.ReadDir(al.logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity log directory: %w", err)
	}

	dates := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "activity_") && strings.HasSuffix(name, ".json") {
			dates = append(dates, strings.TrimSuffix(strings.TrimPrefix(name, "activity_"), ".json"))
		}
	}

	sort.Strings(dates)
	return dates, nil
}

func (al *ActivityLogger) logPath(date string) string {
	return filepath.Join(al.logDir, fmt.Sprintf("activity_%s.json", date))
}

func (al *ActivityLogger) saveCurrentLog() error {
	data, err := json.MarshalIndent(al.currentLog, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal activity log: %w", err)
	}

	if err := os.WriteFile(al.logPath(al.currentLog.Date), data, 0644); err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}

	return nil
}

func (al *ActivityLogger) loadLog(date string) (*DailyActivityLog, error) {
	data, err := os.ReadFile(al.logPath(date))
	if err != nil {
		return nil, fmt.Errorf("no activity log for %s: %w", date, err)
	}

	var log DailyActivityLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("failed to parse activity log for %s: %w", date, err)
	}

	return &log, nil
}
