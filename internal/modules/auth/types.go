package auth

import (
	"context"
	"errors"

	"github.com/mqxu/campus-api/internal/models"
)

// Sentinel errors for the auth service; the handler maps them to responses.
// Absent user and wrong password share ErrInvalidCredentials so usernames
// cannot be enumerated.
var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrAccountDisabled    = errors.New("账号已被禁用")
	ErrCodeExpired        = errors.New("验证码已过期")
	ErrCodeMismatch       = errors.New("验证码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrMobileTaken        = errors.New("该手机号已被其他用户绑定")
	ErrOldMobileMismatch  = errors.New("旧手机号不正确")
	ErrSendFailed         = errors.New("短信发送失败，请稍后重试")
	ErrProviderError      = errors.New("微信登录失败，请稍后重试")
)

// UserStore is the minimal credential-store surface the auth service needs.
// Find methods return (nil, nil) when no row matches.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByMobile(ctx context.Context, mobile string) (*models.User, error)
	FindByOpenid(ctx context.Context, openid string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdateMobile(ctx context.Context, id int64, mobile string) error
	CountOthersWithMobile(ctx context.Context, mobile string, excludingID int64) (int64, error)
}

// TokenResult is returned by every successful login.
type TokenResult struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"` // seconds
}

type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SmsLoginDTO struct {
	Mobile string `json:"mobile" binding:"required"`
	Code   string `json:"code"   binding:"required"`
}

type WechatLoginDTO struct {
	Code string `json:"code" binding:"required"`
}

type SendSmsCodeDTO struct {
	Mobile string `json:"mobile" binding:"required"`
}

type BindMobileDTO struct {
	Mobile string `json:"mobile" binding:"required"`
	Code   string `json:"code"   binding:"required"`
}

type ChangeMobileDTO struct {
	OldMobile string `json:"old_mobile" binding:"required"`
	OldCode   string `json:"old_code"   binding:"required"`
	NewMobile string `json:"new_mobile" binding:"required"`
	NewCode   string `json:"new_code"   binding:"required"`
}
