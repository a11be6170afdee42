// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handlers for the voting server.

Admin endpoints (session CRUD, lifecycle, items, participants, invitations,
analytics, export) require a bearer token from /api/login. Participant
endpoints under /vote/{token} authenticate purely through the encrypted
voting link, and /api/sessions/{id}/results plus the SSE event feed are
readable without credentials so shared dashboards can render live tallies.
*/
package handlers
