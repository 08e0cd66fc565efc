// Package secret resolves indirect configuration values.
//
// A configuration value may either carry the secret itself or point at it
// with a reference of the form:
//
//	secretref:<provider>:<ref>
//
// for example:
//
//	secretref:file:/run/secrets/token_sign
//	secretref:env:JWT_SIGNING_KEY
//	Bearer secretref:dotenv:API_TOKEN
//
// Providers (see Provider, Registry) turn a ref into a value. A Resolver
// holds the providers for a process and replaces references found in
// configuration strings. Environment expansion (see ExpandEnvStrict) is
// available but disabled unless a Resolver is built with WithEnvExpansion,
// so opaque values containing '$' pass through untouched.
package secret
