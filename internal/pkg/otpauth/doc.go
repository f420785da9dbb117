// Package otpauth implements the HOTP (RFC 4226) and TOTP (RFC 6238)
// one-time-password algorithms as pure functions.
//
// Unlike most off-the-shelf libraries, code length is configurable between 4
// and 13 digits, which is why the digest computation lives here instead of
// being delegated. Functions are stateless and safe for concurrent use.
package otpauth
