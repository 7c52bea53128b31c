package credwatcher

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Credentials is the content of a credentials file:
//
//	default_token = "..."
//
//	[scopes]
//	spreadsheets = "..."
type Credentials struct {
	DefaultToken string            `toml:"default_token"`
	Scopes       map[string]string `toml:"scopes"`
}

// LoadCredentials reads and parses the credentials file at path.
func LoadCredentials(path string) (Credentials, error) {
	var c Credentials
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := toml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	for scope, token := range c.Scopes {
		if scope == "" || token == "" {
			return c, fmt.Errorf("parse %s: scope %q has no token", path, scope)
		}
	}
	return c, nil
}
