package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jiskefet/internal/domain/logbook"
	"jiskefet/internal/errs"
	"jiskefet/internal/infrastructure/persistence/sqlite/model"
	"jiskefet/internal/ports"
)

type SubSystemRepository struct {
	store
}

var _ ports.SubSystemRepository = (*SubSystemRepository)(nil)

func NewSubSystemRepository(db *gorm.DB) *SubSystemRepository {
	return &SubSystemRepository{store: store{db: db}}
}

func (r *SubSystemRepository) EnsureUser(ctx context.Context, externalID string, name string) (ports.User, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.User{}, err
	}

	row := model.User{ExternalID: externalID, Name: name}
	if err := db.Where("external_id = ?", externalID).
		Attrs(model.User{Name: name}).
		FirstOrCreate(&row).Error; err != nil {
		return ports.User{}, errs.Persistence(err, "ensure user")
	}
	return ports.User{UserID: row.UserID, ExternalID: row.ExternalID, Name: row.Name}, nil
}

func (r *SubSystemRepository) GetUser(ctx context.Context, userID uint64) (ports.User, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.User{}, err
	}

	var row model.User
	if err := db.Where("user_id = ?", userID).Take(&row).Error; err != nil {
		if isRecordNotFound(err) {
			return ports.User{}, fmt.Errorf("%w: user_id=%d", logbook.ErrUserNotFound, userID)
		}
		return ports.User{}, errs.Persistence(err, "query user")
	}
	return ports.User{UserID: row.UserID, ExternalID: row.ExternalID, Name: row.Name}, nil
}

func (r *SubSystemRepository) EnsureSubSystem(ctx context.Context, name string) (ports.SubSystem, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.SubSystem{}, err
	}

	row := model.SubSystem{Name: name}
	if err := db.Where("sub_system_name = ?", name).FirstOrCreate(&row).Error; err != nil {
		return ports.SubSystem{}, errs.Persistence(err, "ensure subsystem")
	}
	return ports.SubSystem{SubSystemID: row.SubSystemID, Name: row.Name}, nil
}

func (r *SubSystemRepository) GetSubSystem(ctx context.Context, subSystemID uint64) (ports.SubSystem, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.SubSystem{}, err
	}

	var row model.SubSystem
	if err := db.Where("sub_system_id = ?", subSystemID).Take(&row).Error; err != nil {
		if isRecordNotFound(err) {
			return ports.SubSystem{}, fmt.Errorf("%w: sub_system_id=%d", logbook.ErrSubSystemNotFound, subSystemID)
		}
		return ports.SubSystem{}, errs.Persistence(err, "query subsystem")
	}
	return ports.SubSystem{SubSystemID: row.SubSystemID, Name: row.Name}, nil
}

func (r *SubSystemRepository) CreatePermission(ctx context.Context, permission ports.SubSystemPermission) (ports.SubSystemPermission, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.SubSystemPermission{}, err
	}

	row := model.SubSystemPermission{
		UserID:           permission.UserID,
		SubSystemID:      permission.SubSystem.SubSystemID,
		TokenHash:        permission.TokenHash,
		TokenDescription: permission.TokenDescription,
		IsMember:         permission.IsMember,
		EditEorReason:    permission.EditEorReason,
		CreatedAt:        permission.CreatedAt,
	}
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		return ports.SubSystemPermission{}, errs.Persistence(err, "insert subsystem permission")
	}

	permission.PermissionID = row.PermissionID
	return permission, nil
}

func (r *SubSystemRepository) GetPermission(ctx context.Context, permissionID uint64) (ports.SubSystemPermission, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.SubSystemPermission{}, err
	}

	rows, err := queryPermissions(db.Where("p.sub_system_permission_id = ?", permissionID))
	if err != nil {
		return ports.SubSystemPermission{}, err
	}
	if len(rows) == 0 {
		return ports.SubSystemPermission{}, fmt.Errorf("subsystem permission %w: id=%d", errs.ErrNotFound, permissionID)
	}
	return rows[0], nil
}

func (r *SubSystemRepository) ListPermissionsByUser(ctx context.Context, userID uint64) ([]ports.SubSystemPermission, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return queryPermissions(db.Where("p.user_id = ?", userID))
}

func queryPermissions(db *gorm.DB) ([]ports.SubSystemPermission, error) {
	var rows []struct {
		model.SubSystemPermission
		SubSystemName string `gorm:"column:sub_system_name"`
	}
	if err := db.Table("sub_system_permission AS p").
		Select("p.*, s.sub_system_name").
		Joins("JOIN sub_system AS s ON s.sub_system_id = p.sub_system_id").
		Order("p.sub_system_permission_id asc").
		Scan(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query subsystem permissions")
	}

	items := make([]ports.SubSystemPermission, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.SubSystemPermission{
			PermissionID: row.PermissionID,
			UserID:       row.UserID,
			SubSystem: ports.SubSystem{
				SubSystemID: row.SubSystemID,
				Name:        row.SubSystemName,
			},
			TokenHash:        row.TokenHash,
			TokenDescription: row.TokenDescription,
			IsMember:         row.IsMember,
			EditEorReason:    row.EditEorReason,
			CreatedAt:        row.CreatedAt,
		})
	}
	return items, nil
}
