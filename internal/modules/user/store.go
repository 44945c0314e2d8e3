package user

import (
	"context"
	"errors"

	"github.com/mqxu/campus-api/internal/models"
	"gorm.io/gorm"
)

// Store is the gorm-backed credential store. Find methods return (nil, nil)
// when no row matches.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, "username = ?", username)
}

func (s *Store) FindByMobile(ctx context.Context, mobile string) (*models.User, error) {
	return s.findOne(ctx, "mobile = ?", mobile)
}

func (s *Store) FindByOpenid(ctx context.Context, openid string) (*models.User, error) {
	return s.findOne(ctx, "wx_openid = ?", openid)
}

func (s *Store) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *Store) Create(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) UpdateMobile(ctx context.Context, id int64, mobile string) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("mobile", mobile).Error
}

func (s *Store) CountOthersWithMobile(ctx context.Context, mobile string, excludingID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("mobile = ? AND id <> ?", mobile, excludingID).
		Count(&count).Error
	return count, err
}

func (s *Store) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
