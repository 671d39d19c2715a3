package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/docket-labs/docket/pkg/domain/model"
	domainConfig "github.com/docket-labs/docket/pkg/domain/model/config"
	"github.com/docket-labs/docket/pkg/domain/types"
)

// AppConfig is the TOML application configuration: business policy plus the
// seed user directory.
type AppConfig struct {
	NotifyPeerAdmins bool `toml:"notify_peer_admins"`
	DefaultPageSize  int  `toml:"default_page_size"`

	Users []User `toml:"user"`
}

// User is one seed entry in the user directory
type User struct {
	ID    string `toml:"id"`
	Name  string `toml:"name"`
	Email string `toml:"email"`
	Role  string `toml:"role"`
}

// Validate checks if the User is valid
func (u *User) Validate() error {
	if u.ID == "" {
		return goerr.New("user ID is required")
	}
	if _, err := types.ParseRole(u.Role); err != nil {
		return goerr.Wrap(err, "invalid user role", goerr.V("id", u.ID))
	}
	return nil
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if a.DefaultPageSize < 0 {
		return goerr.New("default_page_size must not be negative", goerr.V("value", a.DefaultPageSize))
	}

	userIDs := make(map[string]bool)
	for _, u := range a.Users {
		if err := u.Validate(); err != nil {
			return goerr.Wrap(err, "invalid user")
		}
		if userIDs[u.ID] {
			return goerr.New("duplicate user ID", goerr.V("id", u.ID))
		}
		userIDs[u.ID] = true
	}

	return nil
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V("path", path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V("path", path))
	}

	return &config, nil
}

// ToDomainPolicy converts the configuration into the domain policy
func (a *AppConfig) ToDomainPolicy() domainConfig.Policy {
	policy := domainConfig.DefaultPolicy()
	policy.NotifyPeerAdmins = a.NotifyPeerAdmins
	if a.DefaultPageSize > 0 {
		policy.DefaultPageSize = a.DefaultPageSize
	}
	return policy
}

// SeedUsers converts the configured user entries into domain users
func (a *AppConfig) SeedUsers() []*model.User {
	users := make([]*model.User, len(a.Users))
	for i, u := range a.Users {
		users[i] = &model.User{
			ID:    types.UserID(u.ID),
			Name:  u.Name,
			Email: u.Email,
			Role:  types.Role(u.Role),
		}
	}
	return users
}
