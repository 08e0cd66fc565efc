// Package token issues and verifies HMAC-signed JWTs keyed by the
// configured token-signing secret (config.Properties.TokenSign).
//
// Signer and Verifier take the resolved Properties explicitly; neither
// reads configuration on its own.
package token
