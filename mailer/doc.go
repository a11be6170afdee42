// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package mailer composes and delivers participant voting invitations.

Delivery sits behind the Sender interface so the handlers (and tests) never
care whether mail actually leaves the process: SMTPSender speaks to a real
server via wneessen/go-mail, while LogSender — used whenever SMTP_HOST is
unset — just logs the invitation. The invitation body carries the
participant's personal encrypted voting link minted by the linkcodec package.
*/
package mailer
