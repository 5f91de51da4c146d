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
	"time"

	"github.com/joho/godotenv"
	"github.com/localnerve/myway-api/internal/tracker"
	"github.com/localnerve/myway-api/internal/types"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	var sessionPath string
	flag.StringVar(&sessionPath, "session", "", "session file (default $HOME/.myway/session.json)")
	var baseURL string
	flag.StringVar(&baseURL, "url", "", "API base URL, e.g. http://localhost:3000/api")
	var email, password string
	flag.StringVar(&email, "email", "", "log in with this email before tracking")
	flag.StringVar(&password, "password", "", "password for -email")
	var tripID uint64
	flag.Uint64Var(&tripID, "trip", 0, "active trip id")
	var start, end string
	flag.StringVar(&start, "start", "", "override the trip start date (YYYY-MM-DD or RFC3339)")
	flag.StringVar(&end, "end", "", "override the trip end date; empty tracks until interrupted")
	var positionsFile string
	flag.StringVar(&positionsFile, "positions", "", "JSON file of {latitude, longitude} fixes to replay")
	var interval time.Duration
	flag.DurationVar(&interval, "interval", tracker.DefaultInterval, "sampling interval")
	var yes bool
	flag.BoolVar(&yes, "y", false, "consent to tracking without prompting")
	flag.Parse()

	usage := `
Track an active trip and post location check-ins to the API.

Usage:

tracker [-h] [-f ENV_FILE_PATH] [-session FILE] [-url URL] [-email EMAIL -password PASSWORD]
        -trip ID -positions FILE [-start DATE] [-end DATE] [-interval 5s] [-y]

The session (token, user and trip) is saved between runs, so -email and -trip
are only needed the first time. Without -start or -end the window is the
trip's own start and end dates, fetched from the API.

example
  tracker -url http://localhost:3000/api -email me@example.com -password secret -trip 3 -positions fixes.json
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
	if baseURL == "" {
		baseURL = os.Getenv("MYWAY_API_URL")
	}
	if sessionPath == "" {
		sessionPath = defaultSessionPath()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := tracker.LoadSession(sessionPath)
	if err != nil {
		log.Fatalf("Failed to load session: %v", err)
	}
	if email != "" {
		if baseURL == "" {
			baseURL = session.BaseURL
		}
		loggedIn, err := tracker.Login(ctx, baseURL, email, password)
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		loggedIn.TripID = session.TripID
		session = loggedIn
	} else if baseURL != "" {
		session.BaseURL = baseURL
	}
	if tripID != 0 {
		session.TripID = tripID
	}
	if err := session.Validate(); err != nil {
		log.Fatalf("Incomplete session, log in with -email and pick a trip with -trip: %v", err)
	}
	if err := session.Save(sessionPath); err != nil {
		log.Printf("Session not saved: %v", err)
	}

	client := tracker.NewAPIClient(session)

	var window tracker.Window
	if start == "" && end == "" {
		trip, err := client.FetchTrip(ctx)
		if err != nil {
			log.Fatalf("Failed to load trip %d: %v", session.TripID, err)
		}
		if !trip.Contains(time.Now()) {
			log.Printf("Trip %q is not in progress", trip.Name)
			return
		}
		window = tracker.TripWindow(trip)
	} else {
		window, err = parseWindow(start, end)
		if err != nil {
			log.Fatalf("Invalid trip window: %v", err)
		}
	}

	if positionsFile == "" {
		log.Fatalf("-positions is required")
	}
	locator, err := tracker.LoadReplayLocator(positionsFile)
	if err != nil {
		log.Fatalf("Failed to load positions: %v", err)
	}

	var consent tracker.Consent = tracker.PromptConsent{In: os.Stdin, Out: os.Stdout}
	if yes {
		consent = tracker.StaticConsent(true)
	}

	t := tracker.New(locator, consent, client, tracker.Config{
		Interval: interval,
		OnComplete: func() {
			log.Printf("Check-in cycle complete for trip %d", session.TripID)
		},
	})

	if err := t.Start(ctx, window); err != nil {
		log.Printf("Tracking not started: %v", err)
		return
	}
	log.Printf("Tracking trip %d every %s", session.TripID, interval)

	<-ctx.Done()
	t.Stop()
	log.Println("Tracking stopped")
}

func parseWindow(start, end string) (tracker.Window, error) {
	w := tracker.Window{Start: time.Now()}
	if start != "" {
		t, err := types.ParseFlexTime(start)
		if err != nil {
			return w, err
		}
		w.Start = t
	}
	if end != "" {
		t, err := types.ParseFlexTime(end)
		if err != nil {
			return w, err
		}
		// A bare date covers the whole day
		if len(end) == len(types.DateLayout) {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		w.End = &t
	}
	return w, nil
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "myway-session.json"
	}
	return home + "/.myway/session.json"
}
