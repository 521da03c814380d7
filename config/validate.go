package config

import "fmt"

// ValidationIssue is one finding from ValidateConfiguration.
type ValidationIssue struct {
	Field   string
	Message string
	Level   string // "error" or "warning"
}

// ValidateConfiguration checks cfg for the structural constraints the rest
// of the system relies on, returning every issue found (not just the
// first). Callers that want a hard failure should check for any issue with
// Level == "error", matching Load's behaviour.
func ValidateConfiguration(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Crypto != nil {
		switch cfg.Crypto.SeedMode {
		case "master->GK->seed", "master->seed":
		case "random":
			issues = append(issues, ValidationIssue{
				Field: "crypto.seed_mode", Level: "error",
				Message: fmt.Sprintf("seed_mode %q is not permitted for production builds", cfg.Crypto.SeedMode),
			})
		case "":
			issues = append(issues, ValidationIssue{
				Field: "crypto.seed_mode", Level: "error", Message: "seed_mode must be set",
			})
		default:
			issues = append(issues, ValidationIssue{
				Field: "crypto.seed_mode", Level: "error",
				Message: fmt.Sprintf("unknown seed_mode %q", cfg.Crypto.SeedMode),
			})
		}

		if cfg.Crypto.KBits <= 0 || cfg.Crypto.KBits%8 != 0 {
			issues = append(issues, ValidationIssue{
				Field: "crypto.k_bits", Level: "error", Message: "k_bits must be a positive multiple of 8",
			})
		}
		if cfg.Crypto.GKBytes <= 0 {
			issues = append(issues, ValidationIssue{
				Field: "crypto.gk_bytes", Level: "error", Message: "gk_bytes must be positive",
			})
		}
		if cfg.Crypto.AidBits < 0 {
			issues = append(issues, ValidationIssue{
				Field: "crypto.aid_bits", Level: "error", Message: "aid_bits must be non-negative",
			})
		}
	}

	if cfg.Artifact != nil && cfg.Artifact.Path == "" {
		issues = append(issues, ValidationIssue{
			Field: "artifact.path", Level: "warning", Message: "artifact path is empty",
		})
	}

	if cfg.Logging != nil {
		switch cfg.Logging.Level {
		case "debug", "info", "warn", "error", "fatal", "":
		default:
			issues = append(issues, ValidationIssue{
				Field: "logging.level", Level: "warning",
				Message: fmt.Sprintf("unrecognised log level %q", cfg.Logging.Level),
			})
		}
	}

	return issues
}
