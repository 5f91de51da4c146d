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
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/localnerve/myway-api/internal/config"
	"github.com/localnerve/myway-api/internal/database"
	"github.com/localnerve/myway-api/internal/server"
	"github.com/localnerve/myway-api/internal/services"
	"github.com/localnerve/myway-api/internal/storage"

	_ "github.com/localnerve/myway-api/docs/api" // Swagger docs
)

// @title MyWay API
// @version 1.0.0
// @description Travel journal backend: trips, steps, photos, comments and location check-ins
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/myway-api
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()

	// Photos stay in the database unless an object store is configured
	var store storage.PhotoStore
	if cfg.PhotoStore == "s3" {
		s3Store, err := storage.NewS3Client(ctx, storage.S3Config{
			Endpoint:       cfg.S3Endpoint,
			Region:         cfg.S3Region,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			ForcePathStyle: cfg.S3ForcePathStyle,
			Bucket:         cfg.S3Bucket,
		})
		if err != nil {
			log.Fatalf("Failed to create S3 client: %v", err)
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatalf("Failed to ensure bucket %s: %v", cfg.S3Bucket, err)
		}
		store = s3Store
		log.Printf("Storing photos in bucket %s at %s", cfg.S3Bucket, cfg.S3Endpoint)
	}

	geocoder := services.NewNominatimGeocoder(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout)

	app := server.New(server.Deps{
		Config:    cfg,
		DB:        db,
		Tokens:    services.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Locations: services.NewLocationService(db, geocoder),
		Store:     store,
	}, server.Options{
		Metrics:          true,
		Swagger:          true,
		AccessLog:        true,
		ListAllLocations: cfg.LocationListAll,
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}
