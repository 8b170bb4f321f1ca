// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation for the relational stores.

# Schema Creation

CreateSchema initializes all required tables for a dialect:

	if err := db.CreateSchema(conn, db.Postgres); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL serves PostgreSQL and SQLite; only the payload column type
differs (JSONB versus TEXT).

# Tables

  - survey_response: one row per finished session, with the full payload
  - unit_rating: one row per completed unit

# Relationships

	survey_response 1──* unit_rating

unit_rating rows cascade on delete of their response.
*/
package db
