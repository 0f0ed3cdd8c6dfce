package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/malkhana-api/services"
)

// Quick utility to generate a bcrypt hash for a password
// Usage: go run scripts/hash_password.go <username> <password>
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run scripts/hash_password.go <username> <password>")
		os.Exit(1)
	}

	username := services.NormalizeUsername(os.Args[1])
	password := os.Args[2]
	if len(password) < 6 {
		fmt.Println("password must be at least 6 characters")
		os.Exit(1)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), services.PasswordCost)
	if err != nil {
		fmt.Printf("Error generating hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Bcrypt Hash: %s\n", string(hashedPassword))
	fmt.Printf("\nTo update in MongoDB, run:\n")
	fmt.Printf("db.users.updateOne(\n")
	fmt.Printf("  {\"username\": \"%s\"},\n", username)
	fmt.Printf("  {$set: {\"password\": \"%s\", \"updatedAt\": new Date()}}\n", string(hashedPassword))
	fmt.Printf(")\n")
}
