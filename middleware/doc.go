// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP plumbing shared by all handlers: request
logging, JSON encode/decode helpers, CORS, the admin bearer-token guard and
the single mapping from core domain errors to HTTP status codes
(WriteDomainError).

Keeping the error mapping in one place guarantees the propagation policy is
uniform: validation failures surface verbatim as 400s, state-machine
violations as 409s, storage failures as opaque 500s, and voting-link
failures as a single undifferentiated 400 regardless of which check failed.
*/
package middleware
