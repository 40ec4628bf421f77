package account

import "github.com/oggyb/nearmatch/internal/db"

type SendEmailCodeRequest struct {
	Email     string `json:"email"`
	ProxyUUID string `json:"proxy_uuid,omitempty"`
}

type SendPhoneCodeRequest struct {
	PhoneNumber string `json:"phone_number"`
	ProxyUUID   string `json:"proxy_uuid,omitempty"`
}

// SendCodeResponse echoes the proxy uuid that ties the email and phone
// halves of one sign-up together.
type SendCodeResponse struct {
	ProxyUUID string `json:"proxy_uuid"`
}

type VerifyEmailCodeRequest struct {
	Email     string `json:"email"`
	Code      string `json:"code"`
	ProxyUUID string `json:"proxy_uuid"`
}

type VerifyPhoneCodeRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
	ProxyUUID   string `json:"proxy_uuid"`
}

type VerifyCodeResponse struct {
	Verified bool `json:"verified"`
}

type RegisterUserRequest struct {
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	SexIdentity   db.Sex `json:"sex_identity"`
	SexPreference db.Sex `json:"sex_preference"`
	ProxyUUID     string `json:"proxy_uuid"`
}

type User struct {
	ID            uint64 `json:"id"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	SexIdentity   db.Sex `json:"sex_identity"`
	SexPreference db.Sex `json:"sex_preference"`
	IsMatchable   bool   `json:"is_matchable"`
}

type RegisterUserResponse struct {
	User User `json:"user"`
}

type DeleteAccountRequest struct {
	Email string `json:"email"`
}

type DeleteAccountResponse struct{}

type SetMatchableRequest struct {
	Email       string `json:"email"`
	IsMatchable bool   `json:"is_matchable"`
}

type SetMatchableResponse struct {
	IsMatchable bool `json:"is_matchable"`
}

type RegisterDeviceRequest struct {
	Email    string `json:"email"`
	Platform string `json:"platform"`
	Token    string `json:"token"`
}

type RegisterDeviceResponse struct {
	DeviceID uint64 `json:"device_id"`
}

func toUser(u *db.User) User {
	return User{
		ID:            u.ID,
		Email:         u.Email,
		PhoneNumber:   u.PhoneNumber,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		SexIdentity:   u.SexIdentity,
		SexPreference: u.SexPreference,
		IsMatchable:   u.IsMatchable,
	}
}
