package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/oggyb/nearmatch/internal/app"
	"github.com/oggyb/nearmatch/internal/db"
	svcErr "github.com/oggyb/nearmatch/internal/errors"
	"github.com/oggyb/nearmatch/internal/repository"
	"github.com/oggyb/nearmatch/internal/verify"
)

// Service implements the Account gRPC API.
type Service struct {
	appCtx   *app.AppContext
	verifier *verify.Verifier
	users    *repository.UserRepository
	devices  *repository.DeviceRepository
}

// NewAccountService creates a new Account service. Codes go out through the
// email and SMS channels configured on appCtx.
func NewAccountService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		verifier: verify.NewVerifier(appCtx.DB, appCtx.EmailChannel, appCtx.SMSChannel, appCtx.Config.Verification.AllowedEmailDomains),
		users:    repository.NewUserRepository(appCtx.DB),
		devices:  repository.NewDeviceRepository(appCtx.DB),
	}
}

// SendEmailCode emails a verification code. A missing proxy_uuid starts a
// new sign-up and the issued one is returned.
func (s *Service) SendEmailCode(ctx context.Context, req *SendEmailCodeRequest) (*SendCodeResponse, error) {
	s.appCtx.Logger.Debug("SendEmailCode called", "email", req.Email)

	proxy, err := s.verifier.SendEmailCode(ctx, req.Email, req.ProxyUUID)
	if err != nil {
		s.appCtx.Logger.Warn("SendEmailCode failed", "email", req.Email, "err", err)
		return nil, svcErr.Map(err)
	}
	return &SendCodeResponse{ProxyUUID: proxy}, nil
}

func (s *Service) VerifyEmailCode(ctx context.Context, req *VerifyEmailCodeRequest) (*VerifyCodeResponse, error) {
	if err := s.verifier.VerifyEmailCode(ctx, req.Email, req.Code, req.ProxyUUID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &VerifyCodeResponse{Verified: true}, nil
}

// SendPhoneCode texts a verification code to an E.164 number.
func (s *Service) SendPhoneCode(ctx context.Context, req *SendPhoneCodeRequest) (*SendCodeResponse, error) {
	s.appCtx.Logger.Debug("SendPhoneCode called", "phone_number", req.PhoneNumber)

	proxy, err := s.verifier.SendPhoneCode(ctx, req.PhoneNumber, req.ProxyUUID)
	if err != nil {
		s.appCtx.Logger.Warn("SendPhoneCode failed", "err", err)
		return nil, svcErr.Map(err)
	}
	return &SendCodeResponse{ProxyUUID: proxy}, nil
}

func (s *Service) VerifyPhoneCode(ctx context.Context, req *VerifyPhoneCodeRequest) (*VerifyCodeResponse, error) {
	if err := s.verifier.VerifyPhoneCode(ctx, req.PhoneNumber, req.Code, req.ProxyUUID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &VerifyCodeResponse{Verified: true}, nil
}

// RegisterUser creates the account once email and phone were verified in
// the same sign-up. New users start unmatchable until they opt in.
func (s *Service) RegisterUser(ctx context.Context, req *RegisterUserRequest) (*RegisterUserResponse, error) {
	s.appCtx.Logger.Debug("RegisterUser called", "email", req.Email)

	u, err := s.verifier.Register(ctx, verify.Registration{
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		SexIdentity:   req.SexIdentity,
		SexPreference: req.SexPreference,
		ProxyUUID:     req.ProxyUUID,
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Info("user registered", "user_id", u.ID)
	return &RegisterUserResponse{User: toUser(u)}, nil
}

// DeleteAccount removes the user together with matches, answers,
// notifications, devices and messages.
func (s *Service) DeleteAccount(ctx context.Context, req *DeleteAccountRequest) (*DeleteAccountResponse, error) {
	s.appCtx.Logger.Debug("DeleteAccount called", "email", req.Email)

	u, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	partners, err := s.users.Delete(ctx, u.ID)
	if err != nil {
		s.appCtx.Logger.Error("DeleteAccount failed", "user_id", u.ID, "err", err)
		return nil, svcErr.Map(err)
	}
	if s.appCtx.RedisCache != nil {
		// partners lost their match row too; their cached cooldown is stale
		ids := append([]uint64{u.ID}, partners...)
		if err := s.appCtx.RedisCache.ClearCooldown(ctx, ids...); err != nil {
			s.appCtx.Logger.Warn("clear cooldown failed", "user_ids", ids, "err", err)
		}
	}

	s.appCtx.Logger.Info("user deleted", "user_id", u.ID)
	return &DeleteAccountResponse{}, nil
}

// SetMatchable opts the user in or out of matching.
func (s *Service) SetMatchable(ctx context.Context, req *SetMatchableRequest) (*SetMatchableResponse, error) {
	u, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.users.SetMatchable(ctx, u.ID, req.IsMatchable); err != nil {
		return nil, svcErr.Map(err)
	}
	return &SetMatchableResponse{IsMatchable: req.IsMatchable}, nil
}

// RegisterDevice records a push token for the user.
//
// Behavior:
//   - Platform is ios or android.
//   - Only a SHA-256 of the token is stored; the raw token goes to the push
//     provider, which returns the endpoint used for delivery.
//   - Registering the same token again refreshes the endpoint and re-enables
//     the device.
func (s *Service) RegisterDevice(ctx context.Context, req *RegisterDeviceRequest) (*RegisterDeviceResponse, error) {
	s.appCtx.Logger.Debug("RegisterDevice called", "email", req.Email, "platform", req.Platform)

	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	token := strings.TrimSpace(req.Token)

	bad := map[string]string{}
	if platform != "ios" && platform != "android" {
		bad["platform"] = "platform must be ios or android"
	}
	if token == "" {
		bad["token"] = "token is required"
	}
	if len(bad) > 0 {
		return nil, svcErr.Map(svcErr.Fields(bad))
	}

	u, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	arn, err := s.appCtx.Pusher.RegisterEndpoint(ctx, platform, token)
	if err != nil {
		s.appCtx.Logger.Error("RegisterEndpoint failed", "user_id", u.ID, "platform", platform, "err", err)
		return nil, svcErr.Map(err)
	}

	sum := sha256.Sum256([]byte(token))
	d := &db.Device{
		UserID:      u.ID,
		Platform:    platform,
		TokenHash:   hex.EncodeToString(sum[:]),
		EndpointARN: arn,
		Enabled:     true,
	}
	if err := s.devices.Upsert(ctx, d); err != nil {
		return nil, svcErr.Map(err)
	}
	return &RegisterDeviceResponse{DeviceID: d.ID}, nil
}

func (s *Service) userByEmail(ctx context.Context, email string) (*db.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if svcErr.IsNotFound(err) {
		return nil, svcErr.Field("email", "email does not exist")
	}
	return u, err
}
