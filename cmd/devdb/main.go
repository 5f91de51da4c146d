// main.go
//
// Travel journal service: trips, steps, photos, comments and location check-ins
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of myway-api.
// myway-api is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// myway-api is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with myway-api.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/myway-api/internal/database"
	"github.com/localnerve/myway-api/internal/testutil"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run a migrated development Postgres in a container until interrupted.
DB_DATABASE, DB_USER and DB_PASSWORD are taken from the environment or the .env file.

Usage:

devdb [-h] [-f ENV_FILE_PATH]

example
  devdb -f /path/to/something/.env
`
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	pg, err := testutil.StartPostgres(ctx,
		getEnv("DB_DATABASE", "myway"),
		getEnv("DB_USER", "myway"),
		getEnv("DB_PASSWORD", "myway"),
	)
	if err != nil {
		log.Fatalf("Failed to start Postgres: %v\n", err)
	}
	defer func() {
		if err := pg.Terminate(context.Background()); err != nil {
			log.Printf("Failed to terminate Postgres: %v\n", err)
		}
	}()

	cfg := pg.Config()
	db, err := database.Connect(cfg)
	if err != nil {
		log.Printf("Failed to connect: %v\n", err)
		return
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Printf("Failed to migrate: %v\n", err)
	}
	_ = database.Close(db)

	log.Printf("DB_TYPE=postgres DB_HOST=%s DB_PORT=%s DB_DATABASE=%s\n", cfg.DBHost, cfg.DBPort, cfg.DBDatabase)

	<-ctx.Done()
	log.Printf("Received signal, terminating Postgres...\n")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
