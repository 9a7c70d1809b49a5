/*
Copyright 2025 FreteOps Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	ctecancel "github.com/freteops/ctecancel"
	"github.com/freteops/ctecancel/config"
	"github.com/freteops/ctecancel/database"
	"github.com/freteops/ctecancel/internal/notification"
)

// CteCancelCLI represents the CLI application, encapsulating the root Cobra command.
type CteCancelCLI struct {
	cmd *cobra.Command // Root command for the CLI application
}

// appInstance holds the service instance and its configuration.
type appInstance struct {
	service *ctecancel.CteCancel  // Service object initialized from configuration
	cnf     *config.Configuration // Configuration object holding runtime settings
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun sets up the configuration and initializes the service before running any command.
func preRun(app *appInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newService, err := setupService(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.service = newService
		app.cnf = cnf

		return nil
	}
}

// setupService creates and initializes the service from the provided configuration.
// It connects to the data source using the configuration settings.
func setupService(cfg *config.Configuration) (*ctecancel.CteCancel, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	service, err := ctecancel.NewCteCancel(db)
	if err != nil {
		return nil, fmt.Errorf("error creating service: %v", err)
	}
	return service, nil
}

// NewCLI creates the command-line interface for the application.
// It sets up the root command and the server and migrate subcommands.
func NewCLI() *CteCancelCLI {
	var configFile string
	app := &appInstance{}

	var rootCmd = &cobra.Command{
		Use:   "ctecancel",
		Short: "CT-e cancellation authorization manager",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./ctecancel.json", "Configuration file for the server")

	rootCmd.PersistentPreRunE = preRun(app, &configFile)

	rootCmd.AddCommand(serverCommands(app))
	rootCmd.AddCommand(migrateCommands())

	return &CteCancelCLI{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during execution.
func (w CteCancelCLI) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// main recovers from any panic, initializes the CLI, and executes it.
func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
