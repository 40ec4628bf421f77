package verify

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/nearmatch/internal/db"
	svcErr "github.com/oggyb/nearmatch/internal/errors"
	"github.com/oggyb/nearmatch/internal/repository"
)

// Verifier runs the dual email + phone verification that precedes sign-up.
//
// Both halves of one sign-up share a proxy uuid chosen by the client (or
// issued by SendEmailCode). Registration requires a verified email record
// and a verified phone record carrying the same proxy uuid.
type Verifier struct {
	users   *repository.UserRepository
	records *repository.VerificationRepository
	email   Channel
	sms     Channel

	allowedDomains []string
}

func NewVerifier(database *gorm.DB, email, sms Channel, allowedDomains []string) *Verifier {
	return &Verifier{
		users:          repository.NewUserRepository(database),
		records:        repository.NewVerificationRepository(database),
		email:          email,
		sms:            sms,
		allowedDomains: allowedDomains,
	}
}

// SendEmailCode stores a fresh code for email and sends it.
// Returns the proxy uuid the client must echo back.
//
// Behavior:
//   - Email is lower-cased; domain must be in the allow list (empty = any).
//   - Already registered emails are rejected.
//   - Earlier pending codes for the address are dropped.
func (v *Verifier) SendEmailCode(ctx context.Context, email, proxyUUID string) (string, error) {
	email, err := v.normalizeEmail(email)
	if err != nil {
		return "", err
	}
	proxy, err := normalizeProxy(proxyUUID)
	if err != nil {
		return "", err
	}

	taken, err := v.users.EmailTaken(ctx, email)
	if err != nil {
		return "", err
	}
	if taken {
		return "", svcErr.Field("email", "email is already registered")
	}

	code, hash, err := newHashedCode()
	if err != nil {
		return "", err
	}
	rec := &db.EmailAuthentication{Email: email, CodeHash: hash, ProxyUUID: proxy}
	if err := v.records.ReplaceEmail(ctx, rec); err != nil {
		return "", err
	}
	if err := v.email.Send(ctx, email, code); err != nil {
		return "", err
	}
	return proxy, nil
}

// VerifyEmailCode marks the pending record verified when code matches.
func (v *Verifier) VerifyEmailCode(ctx context.Context, email, code, proxyUUID string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	rec, err := v.records.FindEmail(ctx, email, canonicalProxy(proxyUUID))
	if svcErr.IsNotFound(err) {
		return svcErr.Field("code", "code does not match")
	}
	if err != nil {
		return err
	}
	if !CheckCode(rec.CodeHash, strings.TrimSpace(code)) {
		return svcErr.Field("code", "code does not match")
	}
	return v.records.MarkEmailVerified(ctx, rec.ID)
}

// SendPhoneCode is SendEmailCode for the phone half.
func (v *Verifier) SendPhoneCode(ctx context.Context, phone, proxyUUID string) (string, error) {
	phone, err := normalizePhone(phone)
	if err != nil {
		return "", err
	}
	proxy, err := normalizeProxy(proxyUUID)
	if err != nil {
		return "", err
	}

	taken, err := v.users.PhoneTaken(ctx, phone)
	if err != nil {
		return "", err
	}
	if taken {
		return "", svcErr.Field("phone_number", "phone number is already registered")
	}

	code, hash, err := newHashedCode()
	if err != nil {
		return "", err
	}
	rec := &db.PhoneAuthentication{PhoneNumber: phone, CodeHash: hash, ProxyUUID: proxy}
	if err := v.records.ReplacePhone(ctx, rec); err != nil {
		return "", err
	}
	if err := v.sms.Send(ctx, phone, code); err != nil {
		return "", err
	}
	return proxy, nil
}

// VerifyPhoneCode is VerifyEmailCode for the phone half.
func (v *Verifier) VerifyPhoneCode(ctx context.Context, phone, code, proxyUUID string) error {
	phone = strings.TrimSpace(phone)
	rec, err := v.records.FindPhone(ctx, phone, canonicalProxy(proxyUUID))
	if svcErr.IsNotFound(err) {
		return svcErr.Field("code", "code does not match")
	}
	if err != nil {
		return err
	}
	if !CheckCode(rec.CodeHash, strings.TrimSpace(code)) {
		return svcErr.Field("code", "code does not match")
	}
	return v.records.MarkPhoneVerified(ctx, rec.ID)
}

// Registration is the profile submitted after both codes were verified.
type Registration struct {
	Email         string
	PhoneNumber   string
	FirstName     string
	LastName      string
	SexIdentity   db.Sex
	SexPreference db.Sex
	ProxyUUID     string
}

// Register creates the user once email and phone are verified under the
// same proxy uuid.
func (v *Verifier) Register(ctx context.Context, r Registration) (*db.User, error) {
	email := strings.ToLower(strings.TrimSpace(r.Email))
	phone := strings.TrimSpace(r.PhoneNumber)

	bad := map[string]string{}
	if !r.SexIdentity.Valid() {
		bad["sex_identity"] = "must be one of m, f, b"
	}
	if !r.SexPreference.Valid() {
		bad["sex_preference"] = "must be one of m, f, b"
	}
	if strings.TrimSpace(r.FirstName) == "" {
		bad["first_name"] = "first name is required"
	}
	if len(bad) > 0 {
		return nil, svcErr.Fields(bad)
	}

	emailRec, err := v.records.VerifiedEmail(ctx, email)
	if svcErr.IsNotFound(err) {
		return nil, svcErr.Field("email", "email is not verified")
	}
	if err != nil {
		return nil, err
	}
	phoneRec, err := v.records.VerifiedPhone(ctx, phone)
	if svcErr.IsNotFound(err) {
		return nil, svcErr.Field("phone_number", "phone number is not verified")
	}
	if err != nil {
		return nil, err
	}
	if emailRec.ProxyUUID != phoneRec.ProxyUUID || (r.ProxyUUID != "" && canonicalProxy(r.ProxyUUID) != emailRec.ProxyUUID) {
		return nil, svcErr.Field("proxy_uuid", "email and phone were verified in different sessions")
	}

	u := &db.User{
		Email:         email,
		PhoneNumber:   phone,
		FirstName:     strings.TrimSpace(r.FirstName),
		LastName:      strings.TrimSpace(r.LastName),
		SexIdentity:   r.SexIdentity,
		SexPreference: r.SexPreference,
	}
	if err := v.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (v *Verifier) normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", svcErr.Field("email", "enter a valid email address")
	}
	if len(v.allowedDomains) == 0 {
		return email, nil
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	for _, d := range v.allowedDomains {
		if domain == d {
			return email, nil
		}
	}
	return "", svcErr.Field("email", fmt.Sprintf("email must end in %s", strings.Join(v.allowedDomains, " or ")))
}

// normalizePhone accepts E.164 numbers: a plus sign then 8 to 15 digits.
func normalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	digits := strings.TrimPrefix(phone, "+")
	if digits == phone || len(digits) < 8 || len(digits) > 15 {
		return "", svcErr.Field("phone_number", "enter a number in +<country><number> form")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", svcErr.Field("phone_number", "enter a number in +<country><number> form")
		}
	}
	return phone, nil
}

// normalizeProxy validates a client supplied proxy uuid or issues one.
func normalizeProxy(proxyUUID string) (string, error) {
	if strings.TrimSpace(proxyUUID) == "" {
		return uuid.NewString(), nil
	}
	id, err := uuid.Parse(strings.TrimSpace(proxyUUID))
	if err != nil {
		return "", svcErr.Field("proxy_uuid", "must be a uuid")
	}
	return id.String(), nil
}

func canonicalProxy(proxyUUID string) string {
	proxyUUID = strings.TrimSpace(proxyUUID)
	if id, err := uuid.Parse(proxyUUID); err == nil {
		return id.String()
	}
	return proxyUUID
}

func newHashedCode() (string, string, error) {
	code, err := NewCode()
	if err != nil {
		return "", "", err
	}
	hash, err := HashCode(code)
	if err != nil {
		return "", "", err
	}
	return code, hash, nil
}
