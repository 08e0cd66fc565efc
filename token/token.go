package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lzy/jshow/config"
	"github.com/lzy/jshow/observe"
)

// Environment names read by LoadConfig.
const (
	KeyIssuer   = "TOKEN_ISSUER"
	KeyAudience = "TOKEN_AUDIENCE"
	KeyTTL      = "TOKEN_TTL"
	KeyLeeway   = "TOKEN_LEEWAY"
)

// DefaultTTL is the token lifetime when Config.TTL is zero.
const DefaultTTL = 24 * time.Hour

// Config configures signing and verification.
type Config struct {
	// Issuer is written to and required in the iss claim when set.
	Issuer string `env:"TOKEN_ISSUER"`

	// Audience is written to and required in the aud claim when set.
	Audience string `env:"TOKEN_AUDIENCE"`

	// TTL is the token lifetime. Must not be negative.
	// Default: 24h
	TTL time.Duration `env:"TOKEN_TTL" default:"24h"`

	// Leeway tolerates clock skew during verification. Must not be negative.
	Leeway time.Duration `env:"TOKEN_LEEWAY"`

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// Validate rejects negative durations.
func (c Config) Validate() error {
	if c.TTL < 0 {
		return &config.KeyError{Key: KeyTTL, Err: fmt.Errorf("%w: negative duration %s", config.ErrInvalidValue, c.TTL)}
	}
	if c.Leeway < 0 {
		return &config.KeyError{Key: KeyLeeway, Err: fmt.Errorf("%w: negative duration %s", config.ErrInvalidValue, c.Leeway)}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// LoadConfig binds the token settings from the loader's source. Absent
// names keep their defaults.
func LoadConfig(ctx context.Context, loader *config.Loader) (Config, error) {
	var cfg Config
	if err := loader.Bind(ctx, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Claims are the verified contents of a token.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Extra holds every non-registered claim.
	Extra map[string]any
}

var registeredClaims = map[string]bool{
	"sub": true, "iss": true, "aud": true, "exp": true, "iat": true, "nbf": true, "jti": true,
}

// Option configures a Signer or Verifier.
type Option func(*options)

type options struct {
	mw *observe.Middleware
}

// WithMiddleware observes Sign and Verify calls.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(o *options) { o.mw = mw }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.mw == nil {
		o.mw = observe.NopMiddleware()
	}
	return o
}

// Signer issues HS256 tokens.
type Signer struct {
	key []byte
	cfg Config
	mw  *observe.Middleware
}

// NewSigner creates a signer keyed by props.TokenSign().
func NewSigner(props *config.Properties, cfg Config, opts ...Option) *Signer {
	o := buildOptions(opts)
	return &Signer{key: []byte(props.TokenSign()), cfg: cfg.withDefaults(), mw: o.mw}
}

// Sign issues a token for subject. Extra claims cannot override the
// registered ones (sub, iss, aud, exp, iat, nbf, jti).
func (s *Signer) Sign(ctx context.Context, subject string, extra map[string]any) (string, error) {
	var signed string
	err := s.mw.Observe(ctx, observe.Op{Component: "token", Name: "sign"}, func(ctx context.Context) error {
		if len(s.key) == 0 {
			return ErrEmptySigningKey
		}
		if err := s.cfg.Validate(); err != nil {
			return err
		}
		if subject == "" {
			return ErrMissingSubject
		}

		now := s.cfg.Now()
		claims := jwt.MapClaims{}
		for k, v := range extra {
			if !registeredClaims[k] {
				claims[k] = v
			}
		}
		claims["sub"] = subject
		claims["iat"] = jwt.NewNumericDate(now)
		claims["exp"] = jwt.NewNumericDate(now.Add(s.cfg.TTL))
		if s.cfg.Issuer != "" {
			claims["iss"] = s.cfg.Issuer
		}
		if s.cfg.Audience != "" {
			claims["aud"] = s.cfg.Audience
		}

		var err error
		signed, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
		if err != nil {
			return fmt.Errorf("token: sign: %w", err)
		}
		return nil
	})
	return signed, err
}

// Verifier validates tokens issued with the same key.
type Verifier struct {
	key    []byte
	cfg    Config
	mw     *observe.Middleware
	parser *jwt.Parser
}

// NewVerifier creates a verifier keyed by props.TokenSign().
func NewVerifier(props *config.Properties, cfg Config, opts ...Option) *Verifier {
	cfg = cfg.withDefaults()
	o := buildOptions(opts)

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(cfg.Audience))
	}

	return &Verifier{
		key:    []byte(props.TokenSign()),
		cfg:    cfg,
		mw:     o.mw,
		parser: jwt.NewParser(parserOpts...),
	}
}

// Verify checks the signature and registered claims of tokenString.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	var out *Claims
	err := v.mw.Observe(ctx, observe.Op{Component: "token", Name: "verify"}, func(ctx context.Context) error {
		if len(v.key) == 0 {
			return ErrEmptySigningKey
		}
		if err := v.cfg.Validate(); err != nil {
			return err
		}

		claims := jwt.MapClaims{}
		_, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
			return v.key, nil
		})
		if err != nil {
			return classify(err)
		}

		out, err = toClaims(claims)
		return err
	})
	return out, err
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

func toClaims(mc jwt.MapClaims) (*Claims, error) {
	c := &Claims{Extra: make(map[string]any)}
	var err error

	if c.Subject, err = mc.GetSubject(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	if c.Issuer, err = mc.GetIssuer(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	aud, err := mc.GetAudience()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c.Audience = aud

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}

	for k, v := range mc {
		if !registeredClaims[k] {
			c.Extra[k] = v
		}
	}
	return c, nil
}
