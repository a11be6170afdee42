// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Vote For Me API server.

Vote For Me is a group voting platform: an organizer drafts a session with a
list of items, invites participants by email, and each participant spends a
fixed budget of votes across the items through a personal encrypted link.
Results aggregate live and rank items by total votes.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	ADMIN_PASSWORD=... JWT_SECRET=... go run main.go

Or with flags:

	go run main.go -p 8443 -data ./data

A .env file in the working directory is loaded automatically.

# Configuration

Required settings:

  - ADMIN_PASSWORD (--admin-password): Organizer login password
  - JWT_SECRET (--jwt-secret): Admin bearer-token signing secret

Optional settings:

  - PORT (-p): Server port (default: 8443)
  - DATA_DIR (-data): Session storage directory (default: data)
  - BASE_URL (-base-url): Public URL prefix for voting links
  - TLS_CERT_FILE / TLS_KEY_FILE (-cert / -key): Serve HTTPS directly
  - SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD, SMTP_SENDER_NAME,
    SMTP_SENDER_EMAIL, SMTP_USE_TLS: Outbound invitation email

# Architecture

The server uses a handler-based architecture with dependency injection:

  - session: Session state machine, vote ledger, tally computation
  - linkcodec: Encrypted participant voting links
  - store: File-backed, date-partitioned session persistence with indexes
  - manager: Per-session serialization, cache, rollback-on-failure mutations
  - broadcast: In-process fan-out of live session events
  - handlers: HTTP request handlers (sessions, voting, results, invitations)
  - router: Route definitions using Go 1.22+ routing
  - middleware: Auth guard, CORS, logging, JSON helpers, error mapping
  - models: Request/response types
  - auth: Admin password verification and bearer tokens
  - mailer: Invitation delivery over SMTP
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
