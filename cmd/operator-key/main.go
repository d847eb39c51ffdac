package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// operator-key prints the bcrypt hash to put in API_KEY_HASH for a given
// operator key.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	key := os.Getenv("OPERATOR_KEY")
	if len(os.Args) > 1 {
		key = os.Args[1]
	}
	if key == "" {
		log.Fatal("usage: operator-key <key> (or set OPERATOR_KEY)")
	}
	if len(key) < 12 {
		log.Printf("WARNING: operator key is shorter than 12 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash key: %v", err)
	}

	// single quotes keep godotenv from expanding the $ fields of the hash
	fmt.Printf("API_KEY_HASH='%s'\n", hash)
	log.Println("✓ Add the line above to the server environment, then exchange the key at POST /api/v1/auth/token")
}
