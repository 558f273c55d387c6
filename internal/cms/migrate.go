package cms

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate applies the CMS page schema using Gorm's AutoMigrate and logs progress.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "cms.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying cms page schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&Store{}, &Page{}, &PageStore{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("cms page schema migration failed")
		}
		return eris.Wrap(err, "auto migrating cms page schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Info("cms page schema migration complete")
	}

	return nil
}
