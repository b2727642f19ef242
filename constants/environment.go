package constants

import "strings"

// Environment selects which quote API (and which credentials) a submission targets.
type Environment string

const (
	EnvTest       Environment = "test"
	EnvProduction Environment = "production"
)

var allEnvironments = []Environment{EnvTest, EnvProduction}

// ParseEnvironment accepts the canonical names plus a few synonyms used in env files.
func ParseEnvironment(input string) (Environment, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Environment{
		"":        EnvTest,
		"sandbox": EnvTest,
		"staging": EnvTest,
		"prod":    EnvProduction,
		"live":    EnvProduction,
	}
	if env, ok := synonyms[normalized]; ok {
		return env, true
	}
	for _, env := range allEnvironments {
		if normalized == string(env) {
			return env, true
		}
	}
	return EnvTest, false
}
