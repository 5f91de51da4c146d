// common.go
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

package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/myway-api/internal/middleware"
	"github.com/localnerve/myway-api/internal/services"
	"github.com/localnerve/myway-api/internal/types"
	"github.com/localnerve/myway-api/internal/utils"
)

// handleError writes a service error in the standard error shape.
// errorType is used for errors that are not *types.CustomError.
func handleError(c *fiber.Ctx, err error, errorType string) error {
	var fieldErrs *types.FieldErrors
	if errors.As(err, &fieldErrs) {
		return c.Status(fiber.StatusBadRequest).JSON(fieldErrs)
	}

	var customErr *types.CustomError
	if errors.As(err, &customErr) {
		if customErr.Err != nil && customErr.Code >= fiber.StatusInternalServerError {
			log.Printf("%s %s: %v", c.Method(), c.OriginalURL(), customErr.Err)
		}
		if customErr.Code == fiber.StatusNotFound {
			return utils.NotFoundResponse(c, customErr.Message)
		}
		return utils.ErrorResponse(c, customErr.Message, customErr.Code, customErr.Type)
	}

	log.Printf("%s %s: %v", c.Method(), c.OriginalURL(), err)
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}

// pathID parses a positive integer path parameter
func pathID(c *fiber.Ctx, name, message string) (uint64, error) {
	id, ok := services.ParseID(c.Params(name))
	if !ok {
		return 0, types.InvalidArgumentError(message)
	}
	return id, nil
}

// parseBody decodes the JSON body, reporting malformed input as a validation error
func parseBody(c *fiber.Ctx, out interface{}, message string) error {
	if err := c.BodyParser(out); err != nil {
		log.Printf("%s %s: body rejected: %v", c.Method(), c.OriginalURL(), err)
		return types.ValidationError(message)
	}
	return nil
}

// requireSelf rejects acting on behalf of another user. A zero claimed id means "myself".
func requireSelf(c *fiber.Ctx, claimed uint64) (uint64, error) {
	caller := middleware.CurrentUserID(c)
	if caller == 0 {
		return 0, types.AuthError("Missing bearer token")
	}
	if claimed != 0 && claimed != caller {
		return 0, types.ForbiddenError("Action non autorisée pour cet utilisateur")
	}
	return caller, nil
}
