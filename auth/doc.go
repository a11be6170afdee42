// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides organizer authentication for the admin API.

The configured admin password is bcrypt-hashed once at startup; a successful
Login issues an HS256 bearer token carrying the actor id and role:

	admin, err := auth.NewAdmin(cfg.AdminPassword, cfg.JWTSecret)
	token, err := admin.Login(password)
	claims, err := admin.Verify(token)

Participants never authenticate here — their authorization is the encrypted
voting link handled by the linkcodec package. The core session model only
exposes the ownership predicate (session.CanMutate); which routes demand
which role is decided entirely in the HTTP layer.
*/
package auth
