package bootstrap

import (
	"fmt"
	"strings"

	"github.com/go-authgate/dirgate/internal/config"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateAuthorityConfig(cfg); err != nil {
		return fmt.Errorf("invalid authority configuration: %w", err)
	}
	return nil
}

// validateAuthorityConfig checks that mutations stay reachable by somebody
func validateAuthorityConfig(cfg *config.Config) error {
	if strings.TrimSpace(cfg.AdminAuthority) == "" {
		return fmt.Errorf("ADMIN_AUTHORITY must not be empty")
	}
	return nil
}
