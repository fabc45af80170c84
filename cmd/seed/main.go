package main

import (
	"log"

	"penacms-backend/shared/config"
	"penacms-backend/shared/database"
)

func main() {
	log.Println("🌱 Starting database seeding...")

	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close(db)

	if err := database.Seed(db, cfg); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	log.Println("✅ Database seeding completed successfully!")
}
