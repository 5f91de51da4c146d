package services

import (
	"fmt"
	"log"
	"time"

	"github.com/localnerve/myway-api/internal/config"
	"github.com/localnerve/myway-api/internal/utils"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Geocoder     string            `json:"geocoder"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck checks the database and whether the geocoder host accepts connections.
// An unreachable geocoder degrades the service; check-ins fail but everything else works.
func HealthCheck(cfg *config.Config, db *gorm.DB) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	sqlDB, err := db.DB()
	if err != nil {
		result.Status = "unhealthy"
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		result.ErrorMessage = fmt.Sprintf("Database connection error: %v", err)
		log.Printf("Health check failed - database connection: %v", err)
	} else if err := sqlDB.Ping(); err != nil {
		result.Status = "unhealthy"
		result.Database = "unreachable"
		result.Details["database_ping_error"] = err.Error()
		result.ErrorMessage = fmt.Sprintf("Database ping failed: %v", err)
		log.Printf("Health check failed - database ping: %v", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	if err := utils.PingService(cfg.GeocoderURL, 1500*time.Millisecond); err != nil {
		if result.Status == "healthy" {
			result.Status = "degraded"
		}
		result.Geocoder = "unreachable"
		result.Details["geocoder_error"] = err.Error()
		log.Printf("Health check - geocoder ping: %v", err)
	} else {
		result.Geocoder = "ok"
		result.Details["geocoder_url"] = cfg.GeocoderURL
	}

	if result.Status == "healthy" {
		log.Println("Health check passed - all systems operational")
	}

	return result
}
