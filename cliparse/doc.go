// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse parses server configuration from CLI flags with
environment-variable fallback.

Required settings:

  - ADMIN_PASSWORD (--admin-password): password for the organizer dashboard
  - JWT_SECRET (--jwt-secret): signing secret for admin bearer tokens

Optional settings:

  - PORT (-p): server port (default: 8443)
  - DATA_DIR (-data): session storage directory (default: data)
  - BASE_URL (--base-url): public base URL embedded in voting links
  - TLS_CERT_FILE / TLS_KEY_FILE (-cert / -key): enable TLS serving
  - SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD, SMTP_SENDER_NAME,
    SMTP_SENDER_EMAIL, SMTP_USE_TLS: invitation delivery; when SMTP_HOST is
    unset, invitations are logged rather than sent

A .env file in the working directory is loaded by main before parsing.
*/
package cliparse
