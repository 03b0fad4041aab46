package ports

import (
	"context"
	"time"
)

type User struct {
	UserID     uint64
	ExternalID string
	Name       string
}

type SubSystem struct {
	SubSystemID uint64
	Name        string
}

type SubSystemPermission struct {
	PermissionID     uint64
	UserID           uint64
	SubSystem        SubSystem
	TokenHash        string
	TokenDescription string
	IsMember         bool
	EditEorReason    bool
	CreatedAt        time.Time
}

type SubSystemRepository interface {
	EnsureUser(ctx context.Context, externalID string, name string) (User, error)
	GetUser(ctx context.Context, userID uint64) (User, error)
	EnsureSubSystem(ctx context.Context, name string) (SubSystem, error)
	GetSubSystem(ctx context.Context, subSystemID uint64) (SubSystem, error)
	CreatePermission(ctx context.Context, permission SubSystemPermission) (SubSystemPermission, error)
	GetPermission(ctx context.Context, permissionID uint64) (SubSystemPermission, error)
	ListPermissionsByUser(ctx context.Context, userID uint64) ([]SubSystemPermission, error)
}
