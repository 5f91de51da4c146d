// server.go
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

package server

import (
	"errors"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/myway-api/internal/config"
	"github.com/localnerve/myway-api/internal/handlers"
	"github.com/localnerve/myway-api/internal/middleware"
	"github.com/localnerve/myway-api/internal/services"
	"github.com/localnerve/myway-api/internal/storage"
	"github.com/localnerve/myway-api/internal/types"
	"gorm.io/gorm"
)

// BodyLimit leaves room for steps carrying several base64 photos
const BodyLimit = 32 << 20

// Deps are the collaborators the routes are wired to
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Tokens    *services.TokenIssuer
	Locations *services.LocationService
	// Store is nil when photos are kept in the database
	Store storage.PhotoStore
}

// Options toggle the surfaces a test app does not need
type Options struct {
	Metrics   bool
	Swagger   bool
	AccessLog bool
	// ListAllLocations makes GET /api/location return every user's check-ins
	ListAllLocations bool
}

// New builds the Fiber app with middleware and every route under /api
func New(deps Deps, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    BodyLimit,
		AppName:      "myway-api",
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(compress.New())

	if opts.Metrics {
		prometheus := fiberprometheus.New("myway")
		prometheus.RegisterAt(app, "/metrics")
		app.Use(prometheus.Middleware)
	}

	if opts.Swagger {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	api := app.Group("/api")
	auth := middleware.AuthUser(deps.Tokens)
	viewer := middleware.OptionalUser(deps.Tokens)

	healthHandler := &handlers.HealthHandler{Config: deps.Config, DB: deps.DB}
	userHandler := &handlers.UserHandler{DB: deps.DB, Tokens: deps.Tokens}
	tripHandler := &handlers.TripHandler{DB: deps.DB, Store: deps.Store}
	stepHandler := &handlers.StepHandler{DB: deps.DB, Store: deps.Store}
	photoHandler := &handlers.PhotoHandler{DB: deps.DB, Store: deps.Store}
	commentHandler := &handlers.CommentHandler{DB: deps.DB}
	locationHandler := &handlers.LocationHandler{Service: deps.Locations, ListAll: opts.ListAllLocations}

	api.Get("/health", healthHandler.Health)

	// Users
	users := api.Group("/users")
	users.Post("/register", userHandler.Register)
	users.Post("/auth", userHandler.Authenticate)
	users.Get("/:id/profil", auth, userHandler.GetProfilePhoto)
	users.Put("/:id/profil", auth, userHandler.SetProfilePhoto)
	users.Get("/:id", auth, userHandler.GetUser)
	users.Put("/:id", auth, userHandler.UpdateUser)
	api.Get("/search", auth, userHandler.Search)

	// Trips
	trips := api.Group("/trips")
	trips.Get("/share/:owner/:id/:slug", tripHandler.GetSharedTrip)
	trips.Post("/", auth, tripHandler.CreateTrip)
	trips.Get("/user/:userId", auth, tripHandler.ListUserTrips)
	trips.Get("/:id", auth, tripHandler.GetTrip)
	trips.Put("/:id", auth, tripHandler.UpdateTrip)
	trips.Delete("/:id", auth, tripHandler.DeleteTrip)

	// Steps and photos
	steps := api.Group("/steps")
	steps.Post("/", auth, stepHandler.CreateStep)
	steps.Get("/trip/:tripId", auth, stepHandler.ListTripSteps)
	steps.Get("/:id", auth, stepHandler.GetStep)
	steps.Put("/:id", auth, stepHandler.UpdateStep)
	steps.Delete("/:id", auth, stepHandler.DeleteStep)
	api.Get("/photos/:id", viewer, photoHandler.GetPhoto)

	// Comments; reads are public on public trips
	comments := api.Group("/comments")
	comments.Post("/", auth, commentHandler.CreateComment)
	comments.Get("/step/:stepId", viewer, commentHandler.ListStepComments)
	comments.Get("/:id", viewer, commentHandler.GetComment)
	comments.Put("/:id", auth, commentHandler.UpdateComment)
	comments.Delete("/:id", auth, commentHandler.DeleteComment)

	// Location check-ins
	location := api.Group("/location")
	location.Post("/", auth, locationHandler.CheckIn)
	location.Get("/", auth, locationHandler.ListLocations)
	location.Get("/trip/:tripId", auth, locationHandler.ListTripLocations)
	location.Get("/:userId/:tripId", auth, locationHandler.GetLatestLocation)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	return app
}

// customErrorHandler handles errors that escape handlers, including middleware rejections
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var fiberErr *fiber.Error
	var customErr *types.CustomError
	switch {
	case errors.As(err, &customErr):
		code = customErr.Code
		message = customErr.Message
		errorType = customErr.Type
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}
