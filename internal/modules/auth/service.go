package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/mqxu/campus-api/internal/models"
	"github.com/mqxu/campus-api/internal/pkg/cache"
	jwtpkg "github.com/mqxu/campus-api/internal/pkg/jwt"
	"github.com/mqxu/campus-api/internal/pkg/sms"
	"github.com/mqxu/campus-api/internal/pkg/wechat"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service orchestrates the three login channels, OTP issuance, logout and
// mobile bind/rebind. Sessions are single-active: every successful login
// overwrites the user's session cache entry, invalidating prior tokens.
type Service struct {
	users  UserStore
	cache  cache.Cache
	codec  *jwtpkg.Codec
	sms    sms.Provider
	wechat wechat.Exchanger

	codeTTL time.Duration
	codeLen int
	logger  *zap.Logger
}

// NewService wires the auth service.
func NewService(
	users UserStore,
	c cache.Cache,
	codec *jwtpkg.Codec,
	smsProvider sms.Provider,
	exchanger wechat.Exchanger,
	codeTTL time.Duration,
	codeLen int,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:   users,
		cache:   c,
		codec:   codec,
		sms:     smsProvider,
		wechat:  exchanger,
		codeTTL: codeTTL,
		codeLen: codeLen,
		logger:  logger,
	}
}

// Login authenticates a username/password pair.
func (s *Service) Login(ctx context.Context, username, password string) (*TokenResult, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Enabled() {
		return nil, ErrAccountDisabled
	}
	return s.openSession(ctx, user.ID)
}

// SendSmsCode issues a fresh one-time code for the mobile, replacing any
// prior code, and hands it to the SMS provider. The cached code survives a
// provider failure; the next send overwrites it.
func (s *Service) SendSmsCode(ctx context.Context, mobile string) error {
	code, err := generateCode(s.codeLen)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, cache.SmsCodeKey(mobile), code, s.codeTTL); err != nil {
		return err
	}
	if err := s.sms.Send(ctx, mobile, code); err != nil {
		s.logger.Warn("sms send failed", zap.String("mobile", mobile), zap.Error(err))
		return ErrSendFailed
	}
	s.logger.Info("sms code sent", zap.String("mobile", mobile))
	return nil
}

// SmsLogin authenticates a mobile/one-time-code pair. The code is consumed
// exactly once; a mismatched guess leaves it in place.
func (s *Service) SmsLogin(ctx context.Context, mobile, code string) (*TokenResult, error) {
	if err := s.takeCode(ctx, mobile, code); err != nil {
		return nil, err
	}
	user, err := s.users.FindByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.Enabled() {
		return nil, ErrAccountDisabled
	}
	return s.openSession(ctx, user.ID)
}

// WechatLogin exchanges the client code for an openid and signs the user
// in, auto-provisioning an enabled account on first contact.
func (s *Service) WechatLogin(ctx context.Context, code string) (*TokenResult, error) {
	session, err := s.wechat.ExchangeCode(ctx, code)
	if err != nil {
		s.logger.Warn("wechat code exchange failed", zap.Error(err))
		return nil, ErrProviderError
	}
	user, err := s.users.FindByOpenid(ctx, session.Openid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Full openid keeps the generated username unique per provider contract.
		user = &models.User{
			WxOpenid: session.Openid,
			Username: "wx_" + session.Openid,
			Status:   models.UserStatusEnabled,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("wechat auto-provisioned user",
			zap.Int64("user_id", user.ID),
			zap.String("openid", session.Openid),
		)
	}
	if !user.Enabled() {
		return nil, ErrAccountDisabled
	}
	return s.openSession(ctx, user.ID)
}

// Logout revokes the session the raw token belongs to. A token that does
// not parse is treated as already logged out. Idempotent.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	claims, err := s.codec.Parse(rawToken)
	if err != nil {
		return nil
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil
	}
	return s.LogoutUser(ctx, userID)
}

// LogoutUser revokes the user's session unconditionally. Idempotent.
func (s *Service) LogoutUser(ctx context.Context, userID int64) error {
	if err := s.cache.Del(ctx, cache.UserTokenKey(userID)); err != nil {
		return err
	}
	s.logger.Info("user logged out", zap.Int64("user_id", userID))
	return nil
}

// BindMobile attaches a mobile to the authenticated user after verifying
// ownership via one-time code and mobile uniqueness.
func (s *Service) BindMobile(ctx context.Context, userID int64, mobile, code string) error {
	if err := s.verifyCode(ctx, mobile, code); err != nil {
		return err
	}
	taken, err := s.users.CountOthersWithMobile(ctx, mobile, userID)
	if err != nil {
		return err
	}
	if taken > 0 {
		return ErrMobileTaken
	}
	if err := s.users.UpdateMobile(ctx, userID, mobile); err != nil {
		return err
	}
	if err := s.cache.Del(ctx, cache.SmsCodeKey(mobile)); err != nil {
		return err
	}
	s.logger.Info("mobile bound", zap.Int64("user_id", userID), zap.String("mobile", mobile))
	return nil
}

// ChangeMobile rebinds the user's mobile. Both the old and new numbers must
// be proven with one-time codes; nothing mutates until every check passes.
func (s *Service) ChangeMobile(ctx context.Context, userID int64, dto *ChangeMobileDTO) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.Mobile != dto.OldMobile {
		return ErrOldMobileMismatch
	}
	if err := s.verifyCode(ctx, dto.OldMobile, dto.OldCode); err != nil {
		return err
	}
	if err := s.verifyCode(ctx, dto.NewMobile, dto.NewCode); err != nil {
		return err
	}
	taken, err := s.users.CountOthersWithMobile(ctx, dto.NewMobile, userID)
	if err != nil {
		return err
	}
	if taken > 0 {
		return ErrMobileTaken
	}
	if err := s.users.UpdateMobile(ctx, userID, dto.NewMobile); err != nil {
		return err
	}
	if err := s.cache.Del(ctx, cache.SmsCodeKey(dto.OldMobile), cache.SmsCodeKey(dto.NewMobile)); err != nil {
		return err
	}
	s.logger.Info("mobile rebound",
		zap.Int64("user_id", userID),
		zap.String("old_mobile", dto.OldMobile),
		zap.String("new_mobile", dto.NewMobile),
	)
	return nil
}

// openSession issues a token and overwrites the user's session entry.
func (s *Service) openSession(ctx context.Context, userID int64) (*TokenResult, error) {
	token, err := s.codec.Issue(userID)
	if err != nil {
		return nil, err
	}
	lifetime := s.codec.Lifetime()
	if err := s.cache.Set(ctx, cache.UserTokenKey(userID), token, lifetime); err != nil {
		return nil, err
	}
	s.logger.Info("session opened", zap.Int64("user_id", userID))
	return &TokenResult{Token: token, ExpiresIn: int64(lifetime.Seconds())}, nil
}

// verifyCode checks the cached one-time code without consuming it.
func (s *Service) verifyCode(ctx context.Context, mobile, code string) error {
	stored, err := s.cache.Get(ctx, cache.SmsCodeKey(mobile))
	if err != nil {
		return err
	}
	if stored == "" {
		return ErrCodeExpired
	}
	if stored != code {
		return ErrCodeMismatch
	}
	return nil
}

// takeCode verifies and consumes the one-time code. The final GetDel is the
// atomic take: of two concurrent submissions only one receives the value,
// the other sees the key gone and fails as expired.
func (s *Service) takeCode(ctx context.Context, mobile, code string) error {
	if err := s.verifyCode(ctx, mobile, code); err != nil {
		return err
	}
	taken, err := s.cache.GetDel(ctx, cache.SmsCodeKey(mobile))
	if err != nil {
		return err
	}
	if taken == "" {
		return ErrCodeExpired
	}
	if taken != code {
		// A concurrent resend replaced the code between verify and take.
		// The fresh code was not the caller's to consume; put it back.
		if err := s.cache.Set(ctx, cache.SmsCodeKey(mobile), taken, s.codeTTL); err != nil {
			s.logger.Warn("code restore failed", zap.String("mobile", mobile), zap.Error(err))
		}
		return ErrCodeMismatch
	}
	return nil
}

// generateCode produces a fixed-length numeric code with uniformly
// distributed digits from crypto/rand.
func generateCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return string(digits), nil
}
