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
	"log"

	"github.com/spf13/cobra"

	"github.com/freteops/ctecancel/config"
	"github.com/freteops/ctecancel/database"
)

// migrateCommands returns the Cobra command that (re)applies the schema.
// Connecting already creates the table, so this exists for provisioning a
// database ahead of the first server start.
func migrateCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "create or update the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Fetch()
			if err != nil {
				log.Fatal(err)
			}

			conn, err := database.ConnectDB(cfg.DataSource.Dns)
			if err != nil {
				log.Fatal(err)
			}
			defer conn.Close()

			if err := database.CreateAuthorizationTable(conn); err != nil {
				log.Fatal(err)
			}
			log.Println("schema up to date")
		},
	}

	return cmd
}
