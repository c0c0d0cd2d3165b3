// Package seed provides helpers to create development and demo data for the
// messaging database. These helpers are intended for development and testing
// only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"pharmalink/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// messageTemplates keeps seeded threads plausible for a shift marketplace.
var messageTemplates = []string{
	"Hi, are you available for a shift on %s?",
	"We need cover from 9am to 5pm on %s, interested?",
	"Thanks for reaching out. What is the hourly rate?",
	"The rate is as posted. Parking is available behind the store.",
	"Can you confirm you hold a current dispensing licence?",
	"Yes, licence is current. Happy to send a copy.",
	"Great, see you %s at opening.",
	"Sorry, I have to cancel that shift. Something came up.",
	"No problem, thanks for letting us know.",
	"Is the posting for %s still open?",
}

func (f *Factory) messageContent() string {
	tpl := messageTemplates[f.rng.Intn(len(messageTemplates))]
	return fmt.Sprintf(tpl, gofakeit.WeekDay())
}

// CreateUser constructs and persists a marketplace account with the given role.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(role models.UserRole, overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     gofakeit.Email(),
		Role:      role,
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.PasswordHash = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.PasswordHash = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateRequest persists a contact request between two users.
func (f *Factory) CreateRequest(from, to *models.User, accepted bool) (*models.ConversationRequest, error) {
	req := &models.ConversationRequest{
		FromUserID: from.ID,
		ToUserID:   to.ID,
		IsAccepted: accepted,
		CreatedAt:  f.pastTime(),
	}
	if err := f.db.Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// CreateConversation persists a conversation for the pair, in canonical order.
func (f *Factory) CreateConversation(a, b *models.User) (*models.Conversation, error) {
	low, high := models.CanonicalPair(a.ID, b.ID)
	conv := &models.Conversation{
		UserLowID:  low,
		UserHighID: high,
		CreatedAt:  f.pastTime(),
	}
	if err := f.db.Create(conv).Error; err != nil {
		return nil, err
	}
	return conv, nil
}

// CreateThread fills a conversation with a back-and-forth of count messages.
// Roughly the trailing third stays unread for the receiver.
func (f *Factory) CreateThread(conv *models.Conversation, count int) ([]models.Message, error) {
	participants := []uint{conv.UserLowID, conv.UserHighID}
	base := conv.CreatedAt

	messages := make([]models.Message, 0, count)
	for i := 0; i < count; i++ {
		sender := participants[i%2]
		msg := models.Message{
			ConversationID: conv.ID,
			SenderID:       sender,
			Content:        f.messageContent(),
			SentAt:         base.Add(time.Duration(i+1) * time.Minute),
			IsRead:         i < count-count/3,
		}
		messages = append(messages, msg)
	}
	if len(messages) == 0 {
		return messages, nil
	}
	if err := f.db.Create(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// pastTime spreads created_at over the configured window for a realistic inbox.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour -
		time.Duration(minsBack)*time.Minute)
}
