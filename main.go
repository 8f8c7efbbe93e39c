package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"taskhub/app/config"
	"taskhub/app/controllers"
	"taskhub/app/reminders"
	"taskhub/app/rollup"
	"taskhub/app/routes"
	"taskhub/app/store"
)

var rootCmd = &cobra.Command{
	Use:   "taskhub",
	Short: "Project task service with hierarchy rollups and dependency gating",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database constraints",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	driver, err := config.InitNeo4j(cfg)
	if err != nil {
		return fmt.Errorf("initialize neo4j connection: %w", err)
	}
	defer driver.Close(context.Background())

	taskStore := store.NewNeo4jStore(driver)
	engine := rollup.NewEngine(taskStore)

	taskController := controllers.NewTaskController(taskStore, engine)
	subtaskController := controllers.NewSubtaskController(taskStore, engine)
	dependencyController := controllers.NewDependencyController(taskStore, engine)

	reminderService := reminders.NewService(taskStore, cfg.ReminderSchedule)
	if err := reminderService.Start(cmd.Context()); err != nil {
		return fmt.Errorf("start reminder sweep: %w", err)
	}
	defer reminderService.Stop()

	router := mux.NewRouter()
	routes.RegisterRoutes(router, taskController, subtaskController, dependencyController)

	log.Printf("[server] listening on http://%s", cfg.ListenAddr)
	return http.ListenAndServe(cfg.ListenAddr, router)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	driver, err := config.InitNeo4j(cfg)
	if err != nil {
		return fmt.Errorf("initialize neo4j connection: %w", err)
	}
	defer driver.Close(context.Background())

	if err := store.NewNeo4jStore(driver).EnsureConstraints(cmd.Context()); err != nil {
		return fmt.Errorf("create constraints: %w", err)
	}
	log.Println("[migrate] constraints in place")
	return nil
}
