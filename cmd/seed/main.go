// seed creates a user in the Postgres identity store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"scribe/cmd/identity"
	"scribe/cmd/security/password"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run() error {
	email := flag.String("email", "", "user email (required)")
	pass := flag.String("password", "", "user password (required)")
	name := flag.String("name", "", "display name")
	admin := flag.Bool("admin", false, "grant admin")
	flag.Parse()

	if strings.TrimSpace(*email) == "" || *pass == "" {
		flag.Usage()
		return errors.New("-email and -password are required")
	}
	if len(*pass) > password.MaxSecretBytes {
		return fmt.Errorf("password longer than %d bytes", password.MaxSecretBytes)
	}

	_ = godotenv.Load()
	dsn := strings.TrimSpace(os.Getenv("SCRIBE_DATABASE_URL"))
	if dsn == "" {
		return errors.New("SCRIBE_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		return err
	}

	pcfg, err := password.FromEnv()
	if err != nil {
		return err
	}
	hash, err := password.New(pcfg).Hash(ctx, *pass)
	if err != nil {
		return err
	}

	u, err := users.CreateUser(ctx, identity.CreateUserInput{
		Email:        *email,
		Name:         *name,
		PasswordHash: hash,
		IsAdmin:      *admin,
		Now:          time.Now().UTC(),
	})
	if identity.IsConflict(err) {
		return fmt.Errorf("a user with email %q already exists", *email)
	}
	if err != nil {
		return err
	}

	fmt.Printf("created user %s (%s) admin=%v\n", u.ID, u.Email, u.IsAdmin)
	return nil
}
