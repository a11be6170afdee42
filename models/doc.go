// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models contains the request and response types of the HTTP API.

Domain entities live in the session package; the types here are the wire
shapes handlers decode from and encode to. BallotView and TimelineEntry are
deliberately narrowed views — a participant resolving a voting link never
receives the roster or anyone else's allocation, and anonymous sessions
strip participant ids from analytics.
*/
package models
