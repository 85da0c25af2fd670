package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"blackscholes-api/interfaces"
	"blackscholes-api/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// LocalStorage implements the StorageService interface using SQLite
type LocalStorage struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewLocalStorage creates a new local storage service
func NewLocalStorage(dbPath string) (*LocalStorage, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open SQLite database
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Auto-migrate schemas
	if err := db.AutoMigrate(&models.DBCalculation{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &LocalStorage{
		db:     db,
		logger: logger,
	}, nil
}

// SaveCalculation saves a calculation audit record to the database
func (s *LocalStorage) SaveCalculation(record *interfaces.CalculationRecord) error {
	dbCalc := &models.DBCalculation{
		Endpoint:   record.Endpoint,
		Params:     record.Params,
		DurationMs: record.DurationMs,
		Status:     record.Status,
	}

	result := s.db.Create(dbCalc)
	if result.Error != nil {
		return fmt.Errorf("failed to save calculation: %w", result.Error)
	}

	record.ID = dbCalc.ID
	record.CreatedAt = dbCalc.CreatedAt
	return nil
}

// GetRecentCalculations retrieves the most recent audit records, optionally
// filtered by endpoint
func (s *LocalStorage) GetRecentCalculations(endpoint string, limit int) ([]*interfaces.CalculationRecord, error) {
	var dbCalcs []*models.DBCalculation

	query := s.db.Model(&models.DBCalculation{})
	if endpoint != "" {
		query = query.Where("endpoint = ?", endpoint)
	}

	result := query.Order("created_at DESC").Limit(limit).Find(&dbCalcs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get calculations: %w", result.Error)
	}

	records := make([]*interfaces.CalculationRecord, len(dbCalcs))
	for i, dbCalc := range dbCalcs {
		records[i] = &interfaces.CalculationRecord{
			ID:         dbCalc.ID,
			Endpoint:   dbCalc.Endpoint,
			Params:     dbCalc.Params,
			DurationMs: dbCalc.DurationMs,
			Status:     dbCalc.Status,
			CreatedAt:  dbCalc.CreatedAt,
		}
	}

	return records, nil
}

// CleanupOldData removes audit records older than the specified time
func (s *LocalStorage) CleanupOldData(before time.Time) error {
	s.logger.WithField("before", before).Info("Cleaning up old calculation records")

	if err := s.db.Unscoped().Where("created_at < ?", before).Delete(&models.DBCalculation{}).Error; err != nil {
		return fmt.Errorf("failed to delete old calculations: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *LocalStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
