// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

SurveyConfig turns it into per-session settings, optionally overriding the
rating order:

	sc, err := cfg.SurveyConfig(req.RatingOrder)

# CLI Flags

	-p              Server port (default 3318)
	-t              Store type: postgres, sqlite, object, memory (default sqlite)
	-d              Database URL, or file path for sqlite (default data/survey.db)
	-s3-endpoint    Object store endpoint (host:port)
	-s3-bucket      Object store bucket (default survey-responses)
	-s3-prefix      Object key prefix (default responses)
	-s3-region      Object store region (default us-east-1)
	-s3-ssl         Use TLS for the object store
	-session-salt   Session token salt
	-ip-salt        IP hash salt
	-admin-key      Key for GET /results (optional)
	-manifest       Image manifest (YAML)
	-shuffle        Shuffle images per session
	-preload        Upcoming images announced for preloading (default 2)
	-order          Rating order: GP or PG (default GP)
	-lexicon        Lexicon variant: GREEN or VEG (default GREEN)
	-revisit        Revisit policy: reopen or lock (default reopen)
	-min-dwell      Minimum dwell per image (default 2s)
	-arm-window     Window for entering 10 after 1 (default 800ms)
	-max-images     Completed images per session, 0 for no cap (default 100)
	-save-timeout   Timeout for saving a payload (default 15s)
	-survey-version Version string recorded in metadata

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	STORE_TYPE     → -t
	DATABASE_URL   → -d
	S3_ENDPOINT    → -s3-endpoint
	S3_BUCKET      → -s3-bucket
	S3_PREFIX      → -s3-prefix
	S3_REGION      → -s3-region
	S3_USE_SSL     → -s3-ssl
	SESSION_SALT   → -session-salt
	IP_HASH_SALT   → -ip-salt
	ADMIN_KEY      → -admin-key
	MANIFEST_PATH  → -manifest
	SHUFFLE        → -shuffle
	PRELOAD        → -preload
	RATING_ORDER   → -order
	LEXICON        → -lexicon
	REVISIT_POLICY → -revisit
	MIN_DWELL      → -min-dwell (milliseconds or Go duration)
	ARM_WINDOW     → -arm-window
	MAX_IMAGES     → -max-images
	SAVE_TIMEOUT   → -save-timeout
	SURVEY_VERSION → -survey-version

S3_ACCESS_KEY and S3_SECRET_KEY are read from the environment only. A .env
file in the working directory is loaded by main before parsing.

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing or invalid:

  - SESSION_SALT and IP_HASH_SALT must be provided
  - MANIFEST_PATH must be provided (ErrMissingManifest)
  - DATABASE_URL must be provided for postgres
  - endpoint, keys and bucket must be provided for object
  - order, lexicon and revisit policy must parse
*/
package cliparse
