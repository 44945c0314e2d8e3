package user

import (
	"context"
	"errors"

	"github.com/mqxu/campus-api/internal/models"
	"github.com/mqxu/campus-api/internal/pkg/pagination"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service implements user administration and profile maintenance.
type Service struct {
	db    *gorm.DB
	store *Store
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, store: NewStore(db)}
}

// Store exposes the credential store built on the same connection.
func (s *Service) Store() *Store { return s.store }

// List returns a page of users with the total row count.
func (s *Service) List(ctx context.Context, q pagination.Query, keyword string) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("username LIKE ? OR nickname LIKE ? OR mobile LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := q.Scope(query).Order("id DESC").Find(&users).Error
	return users, total, err
}

// Get loads one user.
func (s *Service) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errUserNotFound
	}
	return u, nil
}

// Create registers a user with a bcrypt password hash.
func (s *Service) Create(ctx context.Context, dto *CreateUserDTO) (*models.User, error) {
	existing, err := s.store.FindByUsername(ctx, dto.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Username: dto.Username,
		Password: string(hash),
		Nickname: dto.Nickname,
		RealName: dto.RealName,
		Email:    dto.Email,
		Mobile:   dto.Mobile,
		Status:   models.UserStatusEnabled,
	}
	return u, s.store.Create(ctx, u)
}

// UpdateProfile patches the mutable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id int64, dto *UpdateProfileDTO) (*models.User, error) {
	updates := map[string]interface{}{}
	if dto.Nickname != nil {
		updates["nickname"] = *dto.Nickname
	}
	if dto.RealName != nil {
		updates["real_name"] = *dto.RealName
	}
	if dto.Email != nil {
		updates["email"] = *dto.Email
	}
	if dto.Avatar != nil {
		updates["avatar"] = *dto.Avatar
	}
	if dto.Gender != nil {
		updates["gender"] = *dto.Gender
	}
	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, errUserNotFound
		}
	}
	return s.Get(ctx, id)
}

// SetStatus enables or disables an account. Disabling blocks every login
// channel; live sessions are revoked by the caller.
func (s *Service) SetStatus(ctx context.Context, id int64, status int) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errUserNotFound
	}
	return nil
}

// ResetPassword replaces the password hash.
func (s *Service) ResetPassword(ctx context.Context, id int64, plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", string(hash))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errUserNotFound
	}
	return nil
}

// Delete soft-deletes the user.
func (s *Service) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errUserNotFound
	}
	return nil
}

// IsNotFound reports whether err is the user-not-found failure.
func IsNotFound(err error) bool { return errors.Is(err, errUserNotFound) }
