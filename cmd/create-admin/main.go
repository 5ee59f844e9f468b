package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/campushq/gatepass-backend/internal/config"
	"github.com/campushq/gatepass-backend/internal/database"
	"github.com/campushq/gatepass-backend/internal/logger"
	"github.com/campushq/gatepass-backend/internal/model"
	"github.com/campushq/gatepass-backend/internal/repository"
)

// create-admin bootstraps the first administrator: it creates the account if
// it does not exist and inserts the admin grant for its normalized email.
// Later grants can be managed through the API, which requires an existing
// admin; this tool breaks that chicken-and-egg at install time.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	directoryRepo := repository.NewDirectoryRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Bootstrap Admin ===")

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = model.NormalizeEmail(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	user, err := userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		fmt.Printf("Account %s already exists, granting admin only.\n", email)

	case errors.Is(err, repository.ErrNotFound):
		fmt.Print("Enter Name: ")
		name, _ := reader.ReadString('\n')
		name = strings.TrimSpace(name)
		if name == "" {
			fmt.Println("Error: Name is required")
			return
		}

		fmt.Print("Enter Password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			fmt.Println("\nError reading password")
			return
		}
		password := string(bytePassword)
		fmt.Println() // Newline after password input
		if len(password) < 6 {
			fmt.Println("Error: Password must be at least 6 characters")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash password")
		}

		user = &model.User{Email: email, Name: name, PasswordHash: string(hash)}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatal().Err(err).Msg("Failed to create account")
		}
		fmt.Printf("Account created with id %s.\n", user.ID)

	default:
		log.Fatal().Err(err).Msg("Failed to look up account")
	}

	grant, err := directoryRepo.UpsertGrant(ctx, email)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to insert admin grant")
	}

	fmt.Printf("Admin grant active for %s (added %s).\n", grant.Email, grant.AddedAt.Format("2006-01-02 15:04"))
}
