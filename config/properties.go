package config

// KeyTokenSign is the configuration key of the token-signing secret.
const KeyTokenSign = "tokenSign"

// Properties is the resolved application configuration.
//
// A Properties is immutable once built and safe for concurrent reads
// without synchronization.
type Properties struct {
	tokenSign string
	source    string
}

// NewProperties builds Properties from an already resolved value.
func NewProperties(tokenSign string) *Properties {
	return &Properties{tokenSign: tokenSign}
}

// TokenSign returns the token-signing secret exactly as resolved,
// including the empty string.
func (p *Properties) TokenSign() string {
	return p.tokenSign
}

// Source names the source that supplied tokenSign, if known.
func (p *Properties) Source() string {
	return p.source
}

// String hides the secret so Properties can be logged or printed.
func (p *Properties) String() string {
	return "Properties{tokenSign:[REDACTED]}"
}

// GoString is used by %#v.
func (p *Properties) GoString() string {
	return "&config.Properties{tokenSign:[REDACTED]}"
}
