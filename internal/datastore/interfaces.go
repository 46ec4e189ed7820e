// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/speechlens/speechlens-go/internal/conf"
	"github.com/speechlens/speechlens-go/internal/errors"
	"github.com/speechlens/speechlens-go/internal/logging"
)

// Interface abstracts the underlying database implementation and defines
// the operations the rest of the application may perform.
type Interface interface {
	Open() error
	Close() error

	GetOrCreateUser(subject, email, name, picture string) (*User, error)
	GetUser(subject string) (*User, error)
	DeleteUser(subject string) error

	SaveAnalysis(analysis *Analysis) error
	GetAnalysis(publicID string) (*Analysis, error)
	GetUserAnalyses(userID uint, limit, offset int) ([]Analysis, error)
	DeleteAnalysis(publicID string, userID uint) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB     *gorm.DB
	logger *slog.Logger
}

// New creates a store instance based on the configured output.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

func (ds *DataStore) log() *slog.Logger {
	if ds.logger == nil {
		ds.logger = logging.ForService("datastore")
		if ds.logger == nil {
			ds.logger = slog.Default().With("service", "datastore")
		}
	}
	return ds.logger
}

// GetOrCreateUser looks a user up by external subject, creating the record
// on first sight and refreshing profile fields and last-login otherwise.
func (ds *DataStore) GetOrCreateUser(subject, email, name, picture string) (*User, error) {
	if subject == "" {
		return nil, errors.Newf("user subject cannot be empty").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}

	var user User
	err := ds.DB.Where("subject = ?", subject).First(&user).Error
	switch {
	case err == nil:
		user.Email = email
		user.Name = name
		user.Picture = picture
		user.LastLogin = time.Now()
		if err := ds.DB.Save(&user).Error; err != nil {
			return nil, ds.dbError(err, "update-user")
		}
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = User{
			Subject:   subject,
			Email:     email,
			Name:      name,
			Picture:   picture,
			LastLogin: time.Now(),
		}
		if err := ds.DB.Create(&user).Error; err != nil {
			return nil, ds.dbError(err, "create-user")
		}
		return &user, nil
	default:
		return nil, ds.dbError(err, "get-user")
	}
}

// GetUser returns the user for an external subject.
func (ds *DataStore) GetUser(subject string) (*User, error) {
	var user User
	if err := ds.DB.Where("subject = ?", subject).First(&user).Error; err != nil {
		return nil, ds.dbError(err, "get-user")
	}
	return &user, nil
}

// DeleteUser removes a user and, via the cascade constraint, all analyses
// the user owns.
func (ds *DataStore) DeleteUser(subject string) error {
	result := ds.DB.Where("subject = ?", subject).Delete(&User{})
	if result.Error != nil {
		return ds.dbError(result.Error, "delete-user")
	}
	if result.RowsAffected == 0 {
		return ds.dbError(gorm.ErrRecordNotFound, "delete-user")
	}
	return nil
}

// SaveAnalysis stores one analysis in a single transaction. A partial or
// half-computed analysis must never be committed, the caller only invokes
// this after the full pipeline succeeded.
func (ds *DataStore) SaveAnalysis(analysis *Analysis) error {
	tx := ds.DB.Begin()
	if tx.Error != nil {
		return ds.dbError(tx.Error, "begin-transaction")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(analysis).Error; err != nil {
		tx.Rollback()
		return ds.dbError(err, "save-analysis")
	}

	if err := tx.Commit().Error; err != nil {
		return ds.dbError(err, "commit-analysis")
	}

	ds.log().Info("analysis saved", "public_id", analysis.PublicID, "user_id", analysis.UserID)
	return nil
}

// GetAnalysis returns one analysis by its public id.
func (ds *DataStore) GetAnalysis(publicID string) (*Analysis, error) {
	var analysis Analysis
	if err := ds.DB.Where("public_id = ?", publicID).First(&analysis).Error; err != nil {
		return nil, ds.dbError(err, "get-analysis")
	}
	return &analysis, nil
}

// GetUserAnalyses lists a user's analyses, newest first.
func (ds *DataStore) GetUserAnalyses(userID uint, limit, offset int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 50
	}
	var analyses []Analysis
	err := ds.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&analyses).Error
	if err != nil {
		return nil, ds.dbError(err, "list-analyses")
	}
	return analyses, nil
}

// DeleteAnalysis removes one analysis, scoped to the owning user.
func (ds *DataStore) DeleteAnalysis(publicID string, userID uint) error {
	result := ds.DB.Where("public_id = ? AND user_id = ?", publicID, userID).Delete(&Analysis{})
	if result.Error != nil {
		return ds.dbError(result.Error, "delete-analysis")
	}
	if result.RowsAffected == 0 {
		return ds.dbError(gorm.ErrRecordNotFound, "delete-analysis")
	}
	return nil
}

// IsNotFound reports whether err represents a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func (ds *DataStore) dbError(err error, operation string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}

// performAutoMigration runs GORM auto-migration for all models.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&User{}, &Analysis{}); err != nil {
		return errors.Newf("failed to auto-migrate %s database: %v", dbType, err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Build()
	}
	if debug {
		logging.Debug("database migration successful", "type", dbType, "connection", connectionInfo)
	}
	return nil
}

// createGormLogger returns a GORM logger that stays quiet except for slow
// queries and errors.
func createGormLogger() logger.Interface {
	return logger.Default.LogMode(logger.Warn)
}
