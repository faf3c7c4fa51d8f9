package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/healthlog-backend/internal/data/repos"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

func wireRepos(db *gorm.DB, log *logger.Logger) repos.Set {
	log.Info("Wiring repos...")
	return repos.NewSet(db, log)
}
