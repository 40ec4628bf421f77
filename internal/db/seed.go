package db

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoCode is the verification code of every seeded sign-up record.
const DemoCode = "000000"

// DemoCampus is where seeded users stand: USC's Tommy Trojan statue.
var DemoCampus = struct{ Lat, Lng float64 }{34.0206, -118.2854}

type seedCategory struct {
	trait1, trait2 string
	numerical      string
	text           string
	choices        []TextAnswerChoice
}

var seedSurvey = []seedCategory{
	{
		trait1:    "introverted",
		trait2:    "extraverted",
		numerical: "how many nights a week do you go out?",
		text:      "pick a friday night",
		choices:   []TextAnswerChoice{{Answer: "house party", Emoji: "🎉"}, {Answer: "movie at home", Emoji: "🍿"}, {Answer: "board games", Emoji: "🎲"}},
	},
	{
		trait1:    "spontaneous",
		trait2:    "planner",
		numerical: "how far ahead do you plan trips, in months?",
		text:      "dream trip",
		choices:   []TextAnswerChoice{{Answer: "tokyo", Emoji: "🗼"}, {Answer: "yosemite", Emoji: "🏕️"}, {Answer: "paris", Emoji: "🥐"}},
	},
	{
		trait1:    "night owl",
		trait2:    "early bird",
		numerical: "how many hours past midnight do you usually sleep?",
		text:      "favorite study spot",
		choices:   []TextAnswerChoice{{Answer: "leavey library", Emoji: "📚"}, {Answer: "doheny library", Emoji: "🏛️"}, {Answer: "coffee shop", Emoji: "☕"}},
	},
	{
		trait1:  "adventurous",
		text:    "go-to cuisine",
		choices: []TextAnswerChoice{{Answer: "tacos", Emoji: "🌮"}, {Answer: "ramen", Emoji: "🍜"}, {Answer: "thai", Emoji: "🍛"}},
	},
}

// seedTables lists every table, children first.
var seedTables = []string{
	"messages", "devices", "notifications", "matches",
	"text_responses", "numerical_responses", "text_answer_choices",
	"text_questions", "numerical_questions", "base_questions", "categories",
	"email_authentications", "phone_authentications", "users",
}

// SeedDemoData resets the database and populates it with a demo survey and
// users standing together on campus.
//
// Behavior:
//  1. Clears every table and resets sequences where the driver allows it.
//  2. Creates one category per trait pair, with a numerical and a text
//     question (choices with emoji) each.
//  3. Creates n users alternating m/f identity, matchable, fresh location
//     jittered around DemoCampus, random answers to every question.
//  4. Stores verified sign-up records for each user with code DemoCode.
//
// r drives all randomness so a fixed seed gives the same data set.
func SeedDemoData(db *gorm.DB, r *rand.Rand, n int) error {
	for _, table := range seedTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
		switch db.Dialector.Name() {
		case "mysql":
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		case "sqlite":
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table)
		}
	}
	slog.Info("cleared existing data")

	numerical, text, err := seedQuestions(db)
	if err != nil {
		return err
	}
	slog.Info("seeded survey", "numerical", len(numerical), "text", len(text))

	codeHash, err := bcrypt.GenerateFromPassword([]byte(DemoCode), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash demo code: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	for i := 1; i <= n; i++ {
		identity, preference := SexMale, SexFemale
		if i%2 == 0 {
			identity, preference = SexFemale, SexMale
		}
		if i%7 == 0 {
			preference = SexBoth
		}

		lat := DemoCampus.Lat + (r.Float64()-0.5)*0.0008
		lng := DemoCampus.Lng + (r.Float64()-0.5)*0.0008
		user := User{
			Email:         fmt.Sprintf("user%d@usc.edu", i),
			PhoneNumber:   fmt.Sprintf("+1213555%04d", i),
			FirstName:     fmt.Sprintf("user%d", i),
			LastName:      "trojan",
			SexIdentity:   identity,
			SexPreference: preference,
			Latitude:      &lat,
			Longitude:     &lng,
			LocUpdateTime: now,
			IsMatchable:   true,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		if err := seedAnswers(db, r, user.ID, numerical, text); err != nil {
			return err
		}

		proxy := fmt.Sprintf("00000000-0000-4000-8000-%012d", i)
		if err := db.Create(&EmailAuthentication{
			Email: user.Email, CodeHash: string(codeHash), IsVerified: true, ProxyUUID: proxy,
		}).Error; err != nil {
			return fmt.Errorf("failed to seed email record: %w", err)
		}
		if err := db.Create(&PhoneAuthentication{
			PhoneNumber: user.PhoneNumber, CodeHash: string(codeHash), IsVerified: true, ProxyUUID: proxy,
		}).Error; err != nil {
			return fmt.Errorf("failed to seed phone record: %w", err)
		}
	}
	slog.Info("seeded users", "count", n)
	return nil
}

func seedQuestions(db *gorm.DB) ([]NumericalQuestion, []TextQuestion, error) {
	var (
		numerical []NumericalQuestion
		text      []TextQuestion
	)
	for _, s := range seedSurvey {
		c := Category{Trait1: s.trait1}
		if s.trait2 != "" {
			trait2 := s.trait2
			c.Trait2 = &trait2
		}
		if err := db.Create(&c).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to seed category: %w", err)
		}

		if s.numerical != "" {
			q := NumericalQuestion{
				BaseQuestion: BaseQuestion{Header: "personality", Prompt: s.numerical, CategoryID: &c.ID, Kind: KindNumerical},
				Average:      3,
				Variance:     1,
				Minimum:      0,
				Maximum:      6,
			}
			if err := db.Create(&q).Error; err != nil {
				return nil, nil, fmt.Errorf("failed to seed numerical question: %w", err)
			}
			numerical = append(numerical, q)
		}

		q := TextQuestion{
			BaseQuestion: BaseQuestion{Header: "preferences", Prompt: s.text, CategoryID: &c.ID, Kind: KindText},
			Choices:      append([]TextAnswerChoice(nil), s.choices...),
		}
		if err := db.Create(&q).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to seed text question: %w", err)
		}
		text = append(text, q)
	}
	return numerical, text, nil
}

func seedAnswers(db *gorm.DB, r *rand.Rand, userID uint64, numerical []NumericalQuestion, text []TextQuestion) error {
	upsert := func(cols ...string) clause.OnConflict {
		return clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns(cols),
		}
	}

	for _, q := range numerical {
		resp := NumericalResponse{UserID: userID, QuestionID: q.ID, Answer: float64(r.IntN(int(q.Maximum-q.Minimum)+1)) + q.Minimum}
		if err := db.Omit(clause.Associations).Clauses(upsert("answer", "updated_at")).Create(&resp).Error; err != nil {
			return fmt.Errorf("failed to seed numerical response: %w", err)
		}
	}
	for _, q := range text {
		choice := q.Choices[r.IntN(len(q.Choices))]
		resp := TextResponse{UserID: userID, QuestionID: q.ID, Answer: choice.Answer}
		if err := db.Omit(clause.Associations).Clauses(upsert("answer", "updated_at")).Create(&resp).Error; err != nil {
			return fmt.Errorf("failed to seed text response: %w", err)
		}
	}
	return nil
}
