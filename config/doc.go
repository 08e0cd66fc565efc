// Package config resolves the process configuration once at startup and
// hands it out as immutable values.
//
// The token-signing key is the central value:
//
//	loader := config.NewLoader(config.Chain(
//	    config.NewEnvSource("JSHOW"),
//	    dotenv,
//	))
//	props, err := loader.Load(ctx)
//	if err != nil {
//	    // ErrKeyMissing et al.; abort startup
//	}
//	signer := token.NewSigner(props, token.Config{})
//
// Other settings are typed structs filled by Bind from the same sources
// through go-simpler.org/env tags.
//
// Properties performs no validation and never substitutes defaults; what a
// missing key turns into is decided by the Loader (see MissingPolicy).
package config
