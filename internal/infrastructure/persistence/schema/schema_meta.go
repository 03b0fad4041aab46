package schema

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jiskefet/internal/errs"
	"jiskefet/internal/infrastructure/persistence/sqlite/model"
)

// CurrentVersion is bumped whenever a model change needs more than AutoMigrate.
const CurrentVersion = 1

const versionKey = "schema_version"

type SchemaMeta struct {
	MetaKey   string    `gorm:"column:meta_key;type:varchar(64);primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (SchemaMeta) TableName() string {
	return "schema_meta"
}

// Migrate creates or updates every table and stamps the schema version.
// A database stamped with a newer version is left untouched.
func Migrate(ctx context.Context, db *gorm.DB) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if db == nil {
		return 0, errors.New("database is required")
	}

	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&SchemaMeta{}); err != nil {
		return 0, errs.Wrap(err, "auto migrate schema_meta")
	}

	stored, found, err := Version(ctx, db)
	if err != nil {
		return 0, err
	}
	if found && stored > CurrentVersion {
		return stored, errs.Wrapf(errs.ErrConflict, "database schema version %d is newer than %d", stored, CurrentVersion)
	}

	if err := db.AutoMigrate(model.All()...); err != nil {
		return 0, errs.Wrap(err, "auto migrate models")
	}

	row := SchemaMeta{MetaKey: versionKey, Value: strconv.Itoa(CurrentVersion), UpdatedAt: time.Now().UTC()}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return 0, errs.Wrap(err, "stamp schema version")
	}
	return CurrentVersion, nil
}

// Version reads the stamped schema version.
func Version(ctx context.Context, db *gorm.DB) (int, bool, error) {
	var row SchemaMeta
	err := db.WithContext(ctx).Where("meta_key = ?", versionKey).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errs.Wrap(err, "read schema version")
	}

	version, err := strconv.Atoi(row.Value)
	if err != nil {
		return 0, false, errs.Wrapf(err, "parse schema version %q", row.Value)
	}
	return version, true, nil
}
