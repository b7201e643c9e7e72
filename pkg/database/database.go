package database

import (
	"fmt"
	"log"

	"interview_coach_backend/internal/config"
	"interview_coach_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// shouldMigrate 判断本次启动是否执行自动迁移。
// release 模式默认跳过，避免线上启动时意外改表；-migrate 参数可强制执行
func shouldMigrate(cfg *config.Config) bool {
	return cfg.ForceMigrate || cfg.Server.Mode != "release"
}

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
		cfg.Database.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if !shouldMigrate(cfg) {
		log.Println("Database migration skipped")
		return db, nil
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.InterviewSession{},
		&model.AnswerAttempt{},
		&model.MediaAsset{},
		&model.FeedbackRecord{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}
