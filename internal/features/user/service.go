package user

import (
	"context"
	"errors"
	"fmt"

	common_models "github.com/garden-co/locality/internal/common/models"
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/features/audit"
	"github.com/garden-co/locality/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// DefaultWorkspaceCreator seeds a fresh account with its first organization.
// Implemented by the organization service; adapted in cmd/api to break the
// dependency cycle.
type DefaultWorkspaceCreator interface {
	CreateDefaultOrganization(ctx context.Context, owner primitive.ObjectID, name string) error
}

type UserService interface {
	Register(ctx context.Context, name, email, password string) (*UserProfile, error)
	Login(ctx context.Context, email, password string) (token string, profile *UserProfile, err error)
	GetProfile(ctx context.Context, id primitive.ObjectID) (*UserProfile, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, name, avatarURL string) (*UserProfile, error)
}

type UserServiceImpl struct {
	Repo         UserRepository
	Workspace    DefaultWorkspaceCreator
	AuditService audit.AuditService
	Config       *config.Config
}

func NewUserService(repo UserRepository, workspace DefaultWorkspaceCreator, auditService audit.AuditService, cfg *config.Config) UserService {
	return &UserServiceImpl{
		Repo:         repo,
		Workspace:    workspace,
		AuditService: auditService,
		Config:       cfg,
	}
}

func (s *UserServiceImpl) Register(ctx context.Context, name, email, password string) (*UserProfile, error) {
	if err := ValidateProfile(name, email); err != nil {
		return nil, err
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	if _, err := s.Repo.FindByEmail(ctx, email); err == nil {
		return nil, errors.New("email already registered")
	} else if !errors.Is(err, common_models.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	profile := &UserProfile{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.Repo.Create(ctx, profile); err != nil {
		return nil, err
	}

	// Every account starts with a default organization, "{AppName}-{code}".
	orgName := fmt.Sprintf("%s-%s", s.Config.AppName, utils.RandomCode())
	if err := s.Workspace.CreateDefaultOrganization(ctx, profile.ID, orgName); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "users", profile.ID.Hex(), map[string]common_models.Change{
		"profile": {New: profile.Email},
	})
	return profile, nil
}

func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (string, *UserProfile, error) {
	profile, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common_models.ErrNotFound) {
			return "", nil, errors.New("invalid credentials")
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return "", nil, errors.New("invalid credentials")
	}

	token, err := utils.GenerateToken(profile.ID, profile.Name, profile.Email)
	if err != nil {
		return "", nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionLogin, "users", profile.ID.Hex(), nil)
	return token, profile, nil
}

func (s *UserServiceImpl) GetProfile(ctx context.Context, id primitive.ObjectID) (*UserProfile, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *UserServiceImpl) UpdateProfile(ctx context.Context, id primitive.ObjectID, name, avatarURL string) (*UserProfile, error) {
	profile, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		profile.Name = name
	}
	if avatarURL != "" {
		profile.AvatarURL = avatarURL
	}
	if err := s.Repo.Save(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
