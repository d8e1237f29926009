package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/arty021/bad-modems/internal/report"
)

// AnalysisRun is one processed upload. Rows are only ever appended.
type AnalysisRun struct {
	ID             uint64         `gorm:"primaryKey;autoIncrement"`
	City           string         `gorm:"size:32;not null;index:idx_city_analyzed,priority:1"`
	AnalyzedAt     time.Time      `gorm:"not null;index:idx_city_analyzed,priority:2;index:idx_analyzed_at"`
	FileName       string         `gorm:"size:255;not null"`
	TotalModems    int            `gorm:"not null"`
	UspDspCount    int            `gorm:"not null"`
	UspDspDssCount int            `gorm:"not null"`
	HealthyCount   int            `gorm:"not null"`
	HealthPercent  float64        `gorm:"not null"`
	NewEntries     int            `gorm:"not null"`
	ResultJSON     datatypes.JSON `gorm:"not null"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
}

func (AnalysisRun) TableName() string {
	return "analysis_run"
}

// CityLatest points at the most recent run of a city and carries its result
// so the latest lookup is a single primary key read.
type CityLatest struct {
	City       string         `gorm:"size:32;primaryKey"`
	RunID      uint64         `gorm:"not null"`
	AnalyzedAt time.Time      `gorm:"not null"`
	ResultJSON datatypes.JSON `gorm:"not null"`
}

func (CityLatest) TableName() string {
	return "city_latest"
}

var errNoResult = errors.New("no stored result")

func openDB(cfg databaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = cfg.MySQL.dsn()
		}
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.Driver == "sqlite" {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&AnalysisRun{}, &CityLatest{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// saveResult marks the new entries of res against the city's current
// latest result, appends res to the run history and makes it the latest
// result. The previous result is read inside the same transaction so
// concurrent uploads of one city never compare against the same result.
func saveResult(db *gorm.DB, city report.City, fileName string, res *report.Result) (*AnalysisRun, error) {
	var run AnalysisRun
	err := db.Transaction(func(tx *gorm.DB) error {
		prev, err := loadLatestForUpdate(tx, city)
		if err != nil && !errors.Is(err, errNoResult) {
			return err
		}
		report.MarkNew(res, prev)

		raw, err := json.Marshal(res)
		if err != nil {
			return err
		}
		analyzedAt := res.Timestamp.UTC()
		newEntries := 0
		if res.NewEntries != nil {
			newEntries = res.NewEntries.Total()
		}

		run = AnalysisRun{
			City:           string(city),
			AnalyzedAt:     analyzedAt,
			FileName:       fileName,
			TotalModems:    res.Summary.TotalModems,
			UspDspCount:    res.Summary.UspDspCount,
			UspDspDssCount: res.Summary.UspDspDssCount,
			HealthyCount:   res.Summary.Healthy(),
			HealthPercent:  res.Summary.HealthyPercentage,
			NewEntries:     newEntries,
			ResultJSON:     datatypes.JSON(raw),
		}
		if err := tx.Create(&run).Error; err != nil {
			return err
		}

		latest := CityLatest{
			City:       string(city),
			RunID:      run.ID,
			AnalyzedAt: analyzedAt,
			ResultJSON: datatypes.JSON(raw),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "city"}},
			DoUpdates: clause.AssignmentColumns([]string{"run_id", "analyzed_at", "result_json"}),
		}).Create(&latest).Error
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// loadLatestForUpdate reads the latest result of city inside tx. On MySQL the
// row is locked until tx ends; sqlite runs on a single connection, which
// already serialises transactions.
func loadLatestForUpdate(tx *gorm.DB, city report.City) (*report.Result, error) {
	if tx.Dialector.Name() == "mysql" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return loadLatest(tx, city)
}

// loadLatestRaw returns the stored JSON of the latest result of city.
func loadLatestRaw(db *gorm.DB, city report.City) ([]byte, error) {
	var row CityLatest
	if err := db.Where("city = ?", string(city)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNoResult
		}
		return nil, err
	}
	return row.ResultJSON, nil
}

func loadLatest(db *gorm.DB, city report.City) (*report.Result, error) {
	raw, err := loadLatestRaw(db, city)
	if err != nil {
		return nil, err
	}
	var res report.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode stored result of %s: %w", city, err)
	}
	return &res, nil
}

// loadLatestTimes returns when each city with data was last analyzed.
func loadLatestTimes(db *gorm.DB) (map[report.City]time.Time, error) {
	var rows []CityLatest
	if err := db.Select("city, analyzed_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[report.City]time.Time, len(rows))
	for _, row := range rows {
		out[report.City(row.City)] = row.AnalyzedAt
	}
	return out, nil
}

// loadHistory returns the runs of city analyzed within [from, to], newest
// first.
func loadHistory(db *gorm.DB, city report.City, from, to time.Time, limit int) ([]historyRow, error) {
	var rows []historyRow
	err := db.Model(&AnalysisRun{}).
		Select("id, city, analyzed_at, file_name, total_modems, usp_dsp_count, usp_dsp_dss_count, healthy_count, health_percent, new_entries").
		Where("city = ? AND analyzed_at BETWEEN ? AND ?", string(city), from, to).
		Order("analyzed_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
