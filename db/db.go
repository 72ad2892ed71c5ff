package db

import (
	"fmt"

	"Gin_postgres_redis_robe_tracker/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
}

func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.User, c.Password, c.Name, c.Port,
	)
}

// ConnectDB 只建立连接池，不 ping；数据库是否可用交给 Repo 的就绪握手判断
func ConnectDB(cfg Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		DisableAutomaticPing: true,
		TranslateError:       true,
		Logger:               logger.Default.LogMode(logger.Warn),
	})
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Record{}); err != nil {
		return err
	}

	// 同一编号最多一条“借出中”
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_open_per_code
	  ON %s (external_id)
	  WHERE status = 'borrowed';
	`, models.RecordTable, models.RecordTable)).Error; err != nil {
		return err
	}

	// 历史按借出时间顺序读取
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_borrowed_at_asc
	  ON %s (borrowed_at, created_at);
	`, models.RecordTable, models.RecordTable)).Error; err != nil {
		return err
	}

	return nil
}
