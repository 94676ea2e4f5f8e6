package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"edm-backend/internal/config"
	appLogger "edm-backend/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var AppDb *gorm.DB

func ConnectDb() error {
	dsn := fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v sslmode=disable",
		config.AppConfig.DBHost,
		config.AppConfig.DBUser,
		config.AppConfig.DBPassword,
		config.AppConfig.DBName,
		config.AppConfig.DBPort,
	)

	level := logger.Info
	if config.AppConfig.Environment == "production" {
		level = logger.Error
	}
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      level,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	AppDb = db
	appLogger.L.Info("connected to database")

	return nil
}

func CloseDb() {
	sqlDB, err := AppDb.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		appLogger.L.Error("failed to close db: " + err.Error())
	}
}
