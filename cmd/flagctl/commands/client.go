package commands

import (
	"fmt"

	"github.com/TimurManjosov/goflagship/internal/cli"
	"github.com/TimurManjosov/goflagship/internal/client"
)

// newClient resolves the effective profile (flags > env vars > config
// file) and builds an API client for it.
func newClient() (*client.Client, error) {
	p, err := cli.GetProfile(profile, baseURL, managementKey)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return client.NewClient(p.BaseURL, p.ManagementKey).WithEvalKey(p.EvalKey), nil
}
