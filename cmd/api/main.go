package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmaster/taskmanager/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskmanager",
		Short: "Task manager web application",
		Long:  `Task manager keeps users, statuses, labels and tasks in PostgreSQL and serves them as HTML pages.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
