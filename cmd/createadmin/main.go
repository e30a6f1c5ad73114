// Command createadmin provisions an admin account.  Self-registration only
// ever creates interns, so this is the one way to obtain the admin role.
//
//	createadmin -email ops@example.com -name "Ops" -password '...'
//
// The password may also come from ADMIN_PASSWORD to keep it out of shell
// history.  An existing user with the same email is promoted and its
// password replaced.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/seat-reservation/internal/config"
	"github.com/iliyamo/seat-reservation/internal/database"
	"github.com/iliyamo/seat-reservation/internal/logger"
	"github.com/iliyamo/seat-reservation/internal/repository"
)

func main() {
	email := flag.String("email", "", "admin email (required)")
	name := flag.String("name", "Administrator", "display name")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "password, defaults to $ADMIN_PASSWORD")
	flag.Parse()

	if strings.TrimSpace(*email) == "" || len(*password) < 8 {
		fmt.Fprintln(os.Stderr, "createadmin: -email is required and the password must be at least 8 characters")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadProvision()
	if err != nil {
		fmt.Fprintf(os.Stderr, "createadmin: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(config.LogConfig{Level: "info", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "createadmin: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal("connect mysql", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	id, err := repository.NewUserRepo(db).UpsertAdmin(ctx, *name, *email, *password, cfg.BcryptCost)
	if err != nil {
		log.Fatal("upsert admin", zap.Error(err))
	}
	log.Info("admin ready", zap.Uint64("user_id", id), zap.String("email", repository.NormalizeEmail(*email)))
}
