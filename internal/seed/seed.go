package seed

import (
	"fmt"
	"log"
	"time"

	"pharmalink/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumPharmacies int
	NumWorkers    int
	// MaxThreadLen caps how many messages a seeded conversation gets.
	MaxThreadLen int
	// MaxDays bounds how far in the past seeded activity is spread.
	MaxDays int
	// SkipBcrypt stores plaintext passwords for faster dev seeding.
	SkipBcrypt  bool
	ShouldClean bool
}

// Seeder populates the database with demo data.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.NumPharmacies <= 0 {
		opts.NumPharmacies = 10
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 40
	}
	if opts.MaxThreadLen <= 0 {
		opts.MaxThreadLen = 12
	}
	return &Seeder{
		db:      db,
		factory: NewFactory(db, opts),
		opts:    opts,
	}
}

// ClearAll removes all seeded data in dependency order.
func (s *Seeder) ClearAll() error {
	tables := []string{"messages", "conversation_requests", "conversations", "users"}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("cleared existing data")
	return nil
}

// Seed builds a realistic contact mesh: pharmacies reach out to workers,
// some handshakes stay pending, most become conversations with threads, and a
// few conversations end, get hidden, or contain recalled messages.
func (s *Seeder) Seed() error {
	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	pharmacies, err := s.createUsers(models.RolePharmacy, s.opts.NumPharmacies)
	if err != nil {
		return fmt.Errorf("failed to create pharmacies: %w", err)
	}
	log.Printf("created %d pharmacy accounts", len(pharmacies))

	workers, err := s.createUsers(models.RoleWorker, s.opts.NumWorkers)
	if err != nil {
		return fmt.Errorf("failed to create workers: %w", err)
	}
	log.Printf("created %d worker accounts", len(workers))

	// One platform admin for moderation endpoints.
	if _, err := s.factory.CreateUser(models.RoleAdmin, func(u *models.User) {
		u.Email = "admin@pharmalink.dev"
	}); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	var conversations, pending, ended int
	rng := s.factory.rng

	for _, pharmacy := range pharmacies {
		contacts := 2 + rng.Intn(4)
		seen := make(map[uint]bool)

		for i := 0; i < contacts; i++ {
			worker := workers[rng.Intn(len(workers))]
			if seen[worker.ID] {
				continue
			}
			seen[worker.ID] = true

			// Every third handshake stays pending.
			if rng.Intn(3) == 0 {
				if _, err := s.factory.CreateRequest(pharmacy, worker, false); err != nil {
					return fmt.Errorf("failed to create pending request: %w", err)
				}
				pending++
				continue
			}

			if _, err := s.factory.CreateRequest(pharmacy, worker, true); err != nil {
				return fmt.Errorf("failed to create accepted request: %w", err)
			}
			conv, err := s.factory.CreateConversation(pharmacy, worker)
			if err != nil {
				return fmt.Errorf("failed to create conversation: %w", err)
			}
			messages, err := s.factory.CreateThread(conv, 2+rng.Intn(s.opts.MaxThreadLen))
			if err != nil {
				return fmt.Errorf("failed to create thread: %w", err)
			}
			conversations++

			if err := s.decorate(conv, messages, rng.Intn(10)); err != nil {
				return err
			}
			if conv.EndedAt != nil {
				ended++
			}
		}
	}

	log.Printf("seeded %d conversations (%d ended), %d pending requests", conversations, ended, pending)
	return nil
}

// decorate applies occasional lifecycle variety to a seeded conversation.
func (s *Seeder) decorate(conv *models.Conversation, messages []models.Message, roll int) error {
	switch roll {
	case 0:
		// Ended by one side after the thread finished.
		endedAt := time.Now().Add(-time.Duration(1+s.factory.rng.Intn(48)) * time.Hour)
		endedBy := conv.UserLowID
		if s.factory.rng.Intn(2) == 0 {
			endedBy = conv.UserHighID
		}
		conv.EndedAt = &endedAt
		conv.EndedByUserID = &endedBy
		if err := s.db.Model(conv).Updates(map[string]interface{}{
			"ended_at":         endedAt,
			"ended_by_user_id": endedBy,
		}).Error; err != nil {
			return fmt.Errorf("failed to end conversation: %w", err)
		}
	case 1:
		// Hidden from one side's inbox.
		column := "user_low_deleted"
		if s.factory.rng.Intn(2) == 0 {
			column = "user_high_deleted"
		}
		if err := s.db.Model(conv).Update(column, true).Error; err != nil {
			return fmt.Errorf("failed to hide conversation: %w", err)
		}
	case 2:
		// One recalled message somewhere in the thread.
		if len(messages) == 0 {
			return nil
		}
		msg := messages[s.factory.rng.Intn(len(messages))]
		recalledAt := msg.SentAt.Add(time.Minute)
		if err := s.db.Model(&models.Message{}).Where("id = ?", msg.ID).Updates(map[string]interface{}{
			"is_recalled": true,
			"recalled_at": recalledAt,
		}).Error; err != nil {
			return fmt.Errorf("failed to recall message: %w", err)
		}
	}
	return nil
}

func (s *Seeder) createUsers(role models.UserRole, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		user, err := s.factory.CreateUser(role)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}
