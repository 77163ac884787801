// Seeder for the first government reviewer account.
// cmd/create-gov-user/main.go
package main

import (
	"flag"
	"log"

	"blue-carbon-api/config"
	"blue-carbon-api/models"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	name := flag.String("name", "Government Reviewer", "reviewer display name")
	email := flag.String("email", "", "reviewer login email (required)")
	password := flag.String("password", "", "initial password (required)")
	department := flag.String("department", "Environment and Climate", "reviewer department")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("Usage: create-gov-user -email reviewer@gov.org -password <secret> [-name ...] [-department ...]")
	}

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize database
	config.InitDB()

	var existing int64
	config.DB.Model(&models.GovUser{}).Where("email = ?", *email).Count(&existing)
	if existing > 0 {
		log.Fatalf("Government user %s already exists", *email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	gov := models.GovUser{
		Name:       *name,
		Email:      *email,
		Password:   string(hashed),
		Department: *department,
	}
	if err := config.DB.Create(&gov).Error; err != nil {
		log.Fatal("Failed to create government user:", err)
	}

	log.Printf("Government user created successfully! ID: %d, Email: %s\n", gov.ID, gov.Email)
}
