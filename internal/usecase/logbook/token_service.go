package logbook

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"jiskefet/internal/bootstrap/logging"
	"jiskefet/internal/errs"
	"jiskefet/internal/ports"
)

// TokenService issues subsystem access tokens. Only bcrypt hashes are stored;
// the plain token is handed out once.
type TokenService struct {
	uow        ports.UnitOfWork
	subSystems ports.SubSystemRepository
	cost       int
	newToken   func() string
	now        func() time.Time
}

func NewTokenService(uow ports.UnitOfWork, subSystems ports.SubSystemRepository) *TokenService {
	return &TokenService{
		uow:        uow,
		subSystems: subSystems,
		cost:       bcrypt.DefaultCost,
		newToken:   func() string { return uuid.NewString() },
		now:        nowUTC,
	}
}

type IssueTokenInput struct {
	UserID        uint64
	SubSystemID   uint64
	Description   string
	IsMember      bool
	EditEorReason bool
}

type IssuedToken struct {
	Permission ports.SubSystemPermission
	PlainToken string
}

func (s *TokenService) IssueToken(ctx context.Context, input IssueTokenInput) (IssuedToken, error) {
	if err := checkContext(ctx); err != nil {
		return IssuedToken{}, err
	}
	if s.subSystems == nil {
		return IssuedToken{}, errors.New("subsystem repository is required")
	}
	if s.uow == nil {
		return IssuedToken{}, errUnitOfWorkRequired
	}

	plain := s.newToken()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return IssuedToken{}, errs.Wrap(err, "hash subsystem token")
	}

	var created ports.SubSystemPermission
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.subSystems.GetUser(txCtx, input.UserID); err != nil {
			return err
		}
		subSystem, err := s.subSystems.GetSubSystem(txCtx, input.SubSystemID)
		if err != nil {
			return err
		}

		created, err = s.subSystems.CreatePermission(txCtx, ports.SubSystemPermission{
			UserID:           input.UserID,
			SubSystem:        subSystem,
			TokenHash:        string(hash),
			TokenDescription: strings.TrimSpace(input.Description),
			IsMember:         input.IsMember,
			EditEorReason:    input.EditEorReason,
			CreatedAt:        s.now().UTC(),
		})
		return err
	}); err != nil {
		return IssuedToken{}, err
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "usecase.token")),
		"subsystem token issued",
		slog.Uint64("user_id", input.UserID),
		slog.String("sub_system", created.SubSystem.Name),
		slog.Uint64("permission_id", created.PermissionID),
	)

	created.TokenHash = ""
	return IssuedToken{Permission: created, PlainToken: plain}, nil
}

// FindTokensByUserID lists the permissions of a user without their hashes.
func (s *TokenService) FindTokensByUserID(ctx context.Context, userID uint64) ([]ports.SubSystemPermission, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if s.subSystems == nil {
		return nil, errors.New("subsystem repository is required")
	}

	if _, err := s.subSystems.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	permissions, err := s.subSystems.ListPermissionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range permissions {
		permissions[i].TokenHash = ""
	}
	return permissions, nil
}

// VerifyToken reports whether plainToken matches the stored hash.
func (s *TokenService) VerifyToken(ctx context.Context, permissionID uint64, plainToken string) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}
	if s.subSystems == nil {
		return false, errors.New("subsystem repository is required")
	}

	permission, err := s.subSystems.GetPermission(ctx, permissionID)
	if err != nil {
		return false, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(permission.TokenHash), []byte(plainToken))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, errs.Wrap(err, "compare subsystem token")
	}
}

func (s *TokenService) EnsureUser(ctx context.Context, externalID string, name string) (ports.User, error) {
	if err := checkContext(ctx); err != nil {
		return ports.User{}, err
	}
	if s.subSystems == nil {
		return ports.User{}, errors.New("subsystem repository is required")
	}

	externalID, err := requireText(externalID, "user external id")
	if err != nil {
		return ports.User{}, err
	}
	name, err = requireText(name, "user name")
	if err != nil {
		return ports.User{}, err
	}
	return s.subSystems.EnsureUser(ctx, externalID, name)
}

func (s *TokenService) EnsureSubSystem(ctx context.Context, name string) (ports.SubSystem, error) {
	if err := checkContext(ctx); err != nil {
		return ports.SubSystem{}, err
	}
	if s.subSystems == nil {
		return ports.SubSystem{}, errors.New("subsystem repository is required")
	}

	name, err := requireText(name, "subsystem name")
	if err != nil {
		return ports.SubSystem{}, err
	}
	return s.subSystems.EnsureSubSystem(ctx, name)
}
