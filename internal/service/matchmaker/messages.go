package matchmaker

import (
	"encoding/json"

	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/matching"
)

type UpdateLocationRequest struct {
	Email     string   `json:"email"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type UpdateLocationResponse struct {
	Nearby  []matching.NearbyUser `json:"nearby"`
	MatchID *uint64               `json:"match_id,omitempty"`
}

type AcceptMatchRequest struct {
	Email     string `json:"email"`
	PartnerID uint64 `json:"partner_id"`
}

// ForceCreateMatchRequest pairs two users regardless of distance, survey
// answers and history.
type ForceCreateMatchRequest struct {
	Email1 string `json:"email1"`
	Email2 string `json:"email2"`
}

type MatchResponse struct {
	MatchID       uint64  `json:"match_id"`
	User1ID       uint64  `json:"user1_id"`
	User2ID       uint64  `json:"user2_id"`
	User1Accepted bool    `json:"user1_accepted"`
	User2Accepted bool    `json:"user2_accepted"`
	Compatibility int     `json:"compatibility"`
	Time          float64 `json:"time"`
}

type StopSharingRequest struct {
	Email string `json:"email"`
}

type StopSharingResponse struct{}

type ListNotificationsRequest struct {
	Email           string  `json:"email"`
	PaginationToken *string `json:"pagination_token,omitempty"`
}

type Notification struct {
	ID      uint64              `json:"id"`
	Type    db.NotificationType `json:"type"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data,omitempty"`
	Sound   *string             `json:"sound,omitempty"`
	Time    float64             `json:"time"`
}

type ListNotificationsResponse struct {
	Notifications       []Notification `json:"notifications"`
	NextPaginationToken *string        `json:"next_pagination_token,omitempty"`
}

func toMatchResponse(m *db.Match) *MatchResponse {
	return &MatchResponse{
		MatchID:       m.ID,
		User1ID:       m.User1ID,
		User2ID:       m.User2ID,
		User1Accepted: m.User1Accepted,
		User2Accepted: m.User2Accepted,
		Compatibility: m.Compatibility,
		Time:          matching.UnixSeconds(m.Time),
	}
}
