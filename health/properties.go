package health

import (
	"context"

	"github.com/lzy/jshow/config"
)

// PropertiesChecker reports on the resolved configuration without
// revealing it.
type PropertiesChecker struct {
	props *config.Properties
}

// NewPropertiesChecker creates a checker for props. A nil props reports
// unhealthy, which is the state before bootstrap finishes.
func NewPropertiesChecker(props *config.Properties) *PropertiesChecker {
	return &PropertiesChecker{props: props}
}

// Name returns "config".
func (c *PropertiesChecker) Name() string { return "config" }

// Check is degraded when tokenSign is empty: tokens cannot be issued.
func (c *PropertiesChecker) Check(ctx context.Context) Result {
	if c.props == nil {
		return Unhealthy("configuration not resolved", ErrNotResolved)
	}

	details := map[string]any{
		"tokenSign.length": len(c.props.TokenSign()),
		"tokenSign.source": c.props.Source(),
	}
	if c.props.TokenSign() == "" {
		return Degraded("tokenSign is empty").WithDetails(details)
	}
	return Healthy("configuration resolved").WithDetails(details)
}
