// Command main runs the database seeder for Pharmalink.
package main

import (
	"flag"
	"log"

	"pharmalink/internal/config"
	"pharmalink/internal/database"
	"pharmalink/internal/seed"
)

func main() {
	// Parse command line flags
	numPharmacies := flag.Int("pharmacies", 10, "Number of pharmacy accounts to create")
	numWorkers := flag.Int("workers", 40, "Number of worker accounts to create")
	maxThread := flag.Int("thread", 12, "Maximum messages per seeded conversation")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("fast", false, "Store plaintext passwords (dev only, much faster)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d pharmacies, %d workers, clean=%v\n", *numPharmacies, *numWorkers, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	_, err = database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run seeder
	s := seed.NewSeeder(database.DB, seed.Options{
		NumPharmacies: *numPharmacies,
		NumWorkers:    *numWorkers,
		MaxThreadLen:  *maxThread,
		SkipBcrypt:    *skipBcrypt,
		ShouldClean:   *shouldClean,
	})

	if err := s.Seed(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Println("📧 All test users have the password: password123")
}
