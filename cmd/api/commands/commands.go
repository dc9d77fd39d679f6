package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmaster/taskmanager/internal/adapters/repository"
	"github.com/taskmaster/taskmanager/internal/application/services"
	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/infrastructure/config"
	"github.com/taskmaster/taskmanager/internal/infrastructure/database"
	"github.com/taskmaster/taskmanager/internal/infrastructure/logger"
	"github.com/taskmaster/taskmanager/internal/infrastructure/server"
	"github.com/taskmaster/taskmanager/internal/ports"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the task manager web server",
		Long:  "Start the task manager web server with all configured routes and middleware",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create users from the command line",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user unless the username is taken",
		Long:  "Create a user. Username and password default to SUPERUSER_USERNAME and SUPERUSER_PASSWORD.",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()

			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			firstName, _ := cmd.Flags().GetString("first-name")
			lastName, _ := cmd.Flags().GetString("last-name")

			if username == "" {
				username = cfg.Superuser.Username
			}
			if password == "" {
				password = cfg.Superuser.Password
			}
			if username == "" || password == "" {
				log.Fatal("Username and password are required (flags or SUPERUSER_USERNAME/SUPERUSER_PASSWORD)")
			}

			createUser(cfg, username, password, firstName, lastName)
		},
	}

	createUserCmd.Flags().String("username", "", "Username (default $SUPERUSER_USERNAME)")
	createUserCmd.Flags().String("password", "", "Password (default $SUPERUSER_PASSWORD)")
	createUserCmd.Flags().String("first-name", "Admin", "First name")
	createUserCmd.Flags().String("last-name", "User", "Last name")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func connect(cfg *config.Config) *database.DB {
	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

func runServer() {
	cfg := loadConfig()

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	db, err := database.New(cfg.Database)
	if err != nil {
		appLogger.Fatalw("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if _, err := db.MigrateUp(); err != nil {
			appLogger.Fatalw("Failed to apply migrations", "error", err)
		}
	}

	srv, err := server.New(cfg, db, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to initialize server", "error", err)
	}

	appLogger.Infow("Starting task manager",
		"address", cfg.Server.Address(),
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Fatalw("Server failed", "error", err)
		}
	case sig := <-quit:
		appLogger.Infow("Received shutdown signal", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			appLogger.Errorw("Graceful shutdown failed", "error", err)
		}
	}
}

func runMigration(direction string) {
	cfg := loadConfig()
	db := connect(cfg)
	defer db.Close()

	var (
		changed bool
		err     error
	)
	switch direction {
	case "up":
		changed, err = db.MigrateUp()
	case "down":
		changed, err = db.MigrateDown()
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if !changed {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully\n", direction)
	}
}

func showMigrationVersion() {
	cfg := loadConfig()
	db := connect(cfg)
	defer db.Close()

	version, dirty, err := db.MigrationVersion()
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}

func createUser(cfg *config.Config, username, password, firstName, lastName string) {
	db := connect(cfg)
	defer db.Close()

	ctx := context.Background()
	userService := services.NewUserService(repository.NewUserRepository(db.DB), logger.NewNop())

	user, err := userService.Register(ctx, ports.RegisterUserRequest{
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Password1: password,
		Password2: password,
	})
	if errors.Is(err, entities.ErrUsernameTaken) {
		fmt.Printf("User %q already exists, nothing to do\n", username)
		return
	}
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("User created successfully:\n")
	fmt.Printf("  ID: %d\n", user.ID)
	fmt.Printf("  Username: %s\n", user.Username)
	fmt.Printf("  Name: %s\n", user.FullName())
}
