// Package main is the picking service binary: the HTTP API plus catalog and operator
// administration commands.
package main

import (
	"Smart-Picking/cmd/config"
	migration "Smart-Picking/cmd/database/migrate"
	"Smart-Picking/domain"
	"Smart-Picking/internal/utils"
	"Smart-Picking/pkg/catalog"
	"Smart-Picking/pkg/operator"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "picking",
		Short: "Warehouse picking service",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configPath != "" {
				os.Setenv("CONFIG_PATH", configPath)
			}
			utils.LoadConfig()
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	cmd.AddCommand(serveCmd(), migrateCmd(), importCatalogCmd(), createOperatorCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := config.ConnectDB()
			if err != nil {
				return err
			}
			app, err := config.NewApp(db)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				log.Info("shutting down")
				if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
					log.Errorf("shutdown: %v", err)
				}
			}()

			return app.Listen(":" + utils.GetConfig("APP_PORT"))
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := config.ConnectDB()
			if err != nil {
				return err
			}
			return migration.Migrate(db)
		},
	}
}

func importCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-catalog <file.xlsx>",
		Short: "Replace the product catalog with the first sheet of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := config.ConnectDB()
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()
			info, err := file.Stat()
			if err != nil {
				return err
			}

			service := catalog.NewCatalogService(catalog.NewCatalogRepository(db))
			res, err := service.ImportSheet(cmd.Context(), file, info.Size())
			if err != nil {
				return err
			}
			fmt.Printf("imported %d entries, skipped %d rows\n", res.Imported, res.Skipped)
			return nil
		},
	}
}

func createOperatorCmd() *cobra.Command {
	var req domain.CreateOperatorRequest

	cmd := &cobra.Command{
		Use:   "create-operator",
		Short: "Register an operator code",
		RunE: func(cmd *cobra.Command, args []string) error {
			utils.InitValidator()
			if err := utils.Validate.Struct(req); err != nil {
				return err
			}
			db, err := config.ConnectDB()
			if err != nil {
				return err
			}

			service := operator.NewOperatorService(operator.NewOperatorRepository(db), false)
			op, err := service.CreateOperator(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Printf("operator %s (%s) created\n", op.ID, op.DisplayName)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Code, "code", "", "Operator code printed on the badge")
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Password, "password", "", "Optional password")
	return cmd
}
