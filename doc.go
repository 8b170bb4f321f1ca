// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the greenery survey API server.

Participants rate a sequence of images on two scales: greenness (0-10) and
pleasantness (1-7). Each image must stay on screen for a minimum dwell time
after loading before the survey advances; a key "1" followed quickly by "0"
enters 10. Completed ratings are saved when the image pool runs out or the
per-session cap is reached.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	SESSION_SALT=... IP_HASH_SALT=... MANIFEST_PATH=images.yaml go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -manifest images.yaml

A .env file in the working directory is loaded first, if present.

# Configuration

Required settings:

  - SESSION_SALT (-session-salt): Secret for session token HMAC
  - IP_HASH_SALT (-ip-salt): Secret for IP hashing
  - MANIFEST_PATH (-manifest): YAML list of images

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - STORE_TYPE (-t): postgres, sqlite, object or memory (default: sqlite)
  - DATABASE_URL (-d): connection string or sqlite file
  - MIN_DWELL, ARM_WINDOW, MAX_IMAGES, RATING_ORDER, LEXICON, REVISIT_POLICY

See package cliparse for the full list.

# Architecture

  - survey: the rating sequencer (units, dwell gate, input routing, recorder)
  - pool: image manifest and per-session queues
  - clock: real and fake time sources for the dwell timers
  - store: payload persistence (PostgreSQL, SQLite, object storage, memory)
  - handlers: HTTP request handlers and the session registry
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response and payload types
  - auth: Session tokens, completion codes, IP hashing
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
