package gormdb

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

type Config struct {
	// Driver is "sqlite" for the embedded store or "postgres" when this
	// process plays the remote-backend role in production.
	Driver string
	DSN    string
}

func Open(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		// Unique-constraint failures must surface as gorm.ErrDuplicatedKey
		// regardless of driver so the repo layer can classify them.
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "trainhub.db"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	log.Info("Database opened", "driver", cfg.Driver)
	return db, nil
}

// Migrate creates or updates every table the record store owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.User{},
		&types.Course{},
		&types.CourseModule{},
		&types.Enrollment{},
		&types.UserProgress{},
		&types.LearningPath{},
		&types.UserLearningPathProgress{},
		&types.Badge{},
		&types.UserBadge{},
		&types.Notification{},
		&types.SystemLog{},
	)
}
