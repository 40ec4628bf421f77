package db

import (
	"time"

	"gorm.io/datatypes"
)

// Sex is used both as identity and as preference.
type Sex string

const (
	SexMale   Sex = "m"
	SexFemale Sex = "f"
	SexBoth   Sex = "b"
)

func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale, SexBoth:
		return true
	}
	return false
}

// User table.
//
// Latitude/Longitude are nullable: a user that never shared (or stopped
// sharing) a location is never returned by the nearby query.
type User struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	Email         string    `gorm:"uniqueIndex;size:128;not null"`
	PhoneNumber   string    `gorm:"uniqueIndex;size:32;not null"`
	FirstName     string    `gorm:"size:64"`
	LastName      string    `gorm:"size:64"`
	SexIdentity   Sex       `gorm:"size:1;not null"`
	SexPreference Sex       `gorm:"size:1;not null"`
	Latitude      *float64  `gorm:"index:idx_users_location,priority:1"`
	Longitude     *float64  `gorm:"index:idx_users_location,priority:2"`
	LocUpdateTime time.Time `gorm:"index"`
	IsMatchable   bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// Category is a bipolar trait pair, e.g. introverted/extraverted.
// Trait2 is nil for one-sided categories.
type Category struct {
	ID     uint64  `gorm:"primaryKey;autoIncrement"`
	Trait1 string  `gorm:"size:64;not null"`
	Trait2 *string `gorm:"size:64"`
}

type QuestionKind string

const (
	KindNumerical QuestionKind = "numerical"
	KindText      QuestionKind = "text"
)

var QuestionHeaders = []string{"personality", "preferences", "values", "lifestyle"}

// BaseQuestion holds what both question variants share. Kind says which
// specialization table carries the rest.
type BaseQuestion struct {
	ID         uint64       `gorm:"primaryKey;autoIncrement"`
	Header     string       `gorm:"size:32"`
	CategoryID *uint64      `gorm:"index"`
	Category   *Category    `gorm:"constraint:OnDelete:SET NULL"`
	Prompt     string       `gorm:"type:text"`
	Kind       QuestionKind `gorm:"size:16;not null;index"`
}

type NumericalQuestion struct {
	ID             uint64       `gorm:"primaryKey;autoIncrement"`
	BaseQuestionID uint64       `gorm:"uniqueIndex;not null"`
	BaseQuestion   BaseQuestion `gorm:"constraint:OnDelete:CASCADE"`
	Average        float64      `gorm:"not null"`
	Variance       float64      `gorm:"not null"`
	Minimum        float64      `gorm:"not null"`
	Maximum        float64      `gorm:"not null"`
}

type TextQuestion struct {
	ID               uint64             `gorm:"primaryKey;autoIncrement"`
	BaseQuestionID   uint64             `gorm:"uniqueIndex;not null"`
	BaseQuestion     BaseQuestion       `gorm:"constraint:OnDelete:CASCADE"`
	IsMultipleAnswer bool               `gorm:"not null;default:false"`
	Choices          []TextAnswerChoice `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

type TextAnswerChoice struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	QuestionID uint64 `gorm:"index;not null"`
	Answer     string `gorm:"size:128;not null"`
	Emoji      string `gorm:"size:16"`
}

// NumericalResponse is one user's answer to one numerical question.
//
// Unique (user_id, question_id): a resubmission overwrites the answer.
type NumericalResponse struct {
	ID         uint64            `gorm:"primaryKey;autoIncrement"`
	UserID     uint64            `gorm:"not null;uniqueIndex:idx_numerical_user_question,priority:1"`
	QuestionID uint64            `gorm:"not null;uniqueIndex:idx_numerical_user_question,priority:2;index"`
	Question   NumericalQuestion `gorm:"constraint:OnDelete:CASCADE"`
	Answer     float64           `gorm:"not null"`
	CreatedAt  time.Time         `gorm:"autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"autoUpdateTime"`
}

// TextResponse mirrors NumericalResponse for text questions.
type TextResponse struct {
	ID         uint64       `gorm:"primaryKey;autoIncrement"`
	UserID     uint64       `gorm:"not null;uniqueIndex:idx_text_user_question,priority:1"`
	QuestionID uint64       `gorm:"not null;uniqueIndex:idx_text_user_question,priority:2;index"`
	Question   TextQuestion `gorm:"constraint:OnDelete:CASCADE"`
	Answer     string       `gorm:"size:255;not null"`
	CreatedAt  time.Time    `gorm:"autoCreateTime"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime"`
}

// Match is an unordered pair of users stored in canonical order.
//
// Unique (user1_id, user2_id): User1 always carries the lexicographically
// smaller email, so (A,B) and (B,A) collide on the same row.
//
// Fields:
//   - User1Accepted/User2Accepted: acceptance per side.
//   - InitialNotificationSent/AcceptNotificationSent: guards that make the
//     two notification fan-outs happen at most once.
//   - Compatibility: score announced with the initial notification.
//   - Time: creation time, drives expiry.
type Match struct {
	ID                      uint64    `gorm:"primaryKey;autoIncrement"`
	User1ID                 uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	User2ID                 uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:2;index"`
	User1                   User      `gorm:"foreignKey:User1ID;constraint:OnDelete:CASCADE"`
	User2                   User      `gorm:"foreignKey:User2ID;constraint:OnDelete:CASCADE"`
	User1Accepted           bool      `gorm:"not null;default:false"`
	User2Accepted           bool      `gorm:"not null;default:false"`
	InitialNotificationSent bool      `gorm:"not null;default:false"`
	AcceptNotificationSent  bool      `gorm:"not null;default:false"`
	Compatibility           int       `gorm:"not null;default:0"`
	Time                    time.Time `gorm:"not null;index"`
}

// HasExpired reports whether the match is older than window at now.
func (m *Match) HasExpired(now time.Time, window time.Duration) bool {
	return now.Sub(m.Time) > window
}

// Partner returns the id of the other side of the match.
func (m *Match) Partner(userID uint64) uint64 {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

type NotificationType string

const (
	NotificationMatch     NotificationType = "match"
	NotificationAccept    NotificationType = "accept"
	NotificationStopShare NotificationType = "stop"
)

// Notification is a persisted push addressed to one user.
type Notification struct {
	ID      uint64           `gorm:"primaryKey;autoIncrement"`
	UserID  uint64           `gorm:"not null;index:idx_notification_user_time,priority:1"`
	Type    NotificationType `gorm:"size:15;not null"`
	Message string           `gorm:"type:text"`
	Data    datatypes.JSON
	Sound   *string   `gorm:"size:64"`
	Time    time.Time `gorm:"not null;index:idx_notification_user_time,priority:2,sort:desc"`
}

// EmailAuthentication is one pending or verified email code.
// ProxyUUID ties it to the phone half of the same sign-up.
type EmailAuthentication struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	Email      string    `gorm:"size:128;not null;index"`
	CodeHash   string    `gorm:"size:255;not null"`
	IsVerified bool      `gorm:"not null;default:false"`
	ProxyUUID  string    `gorm:"size:36;not null;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

type PhoneAuthentication struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	PhoneNumber string    `gorm:"size:32;not null;index"`
	CodeHash    string    `gorm:"size:255;not null"`
	IsVerified  bool      `gorm:"not null;default:false"`
	ProxyUUID   string    `gorm:"size:36;not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Device is a push endpoint registered by a user's phone.
type Device struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	UserID      uint64    `gorm:"not null;uniqueIndex:idx_device_user_token,priority:1"`
	Platform    string    `gorm:"size:16;not null"`
	TokenHash   string    `gorm:"size:64;not null;uniqueIndex:idx_device_user_token,priority:2"`
	EndpointARN string    `gorm:"size:256"`
	Enabled     bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Message is a short-lived chat line between two users.
type Message struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	SenderID   uint64    `gorm:"not null;index"`
	ReceiverID uint64    `gorm:"not null;index"`
	Body       string    `gorm:"type:text;not null"`
	Timestamp  time.Time `gorm:"not null;index"`
}

// AllModels is the migration set, parents first.
func AllModels() []any {
	return []any{
		&User{},
		&Category{},
		&BaseQuestion{},
		&NumericalQuestion{},
		&TextQuestion{},
		&TextAnswerChoice{},
		&NumericalResponse{},
		&TextResponse{},
		&Match{},
		&Notification{},
		&EmailAuthentication{},
		&PhoneAuthentication{},
		&Device{},
		&Message{},
	}
}
