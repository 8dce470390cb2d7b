package data

import (
	"time"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/repo"
)

// Repositories contains all repositories
type Repositories struct {
	Directory repo.DirectoryRepo
	Instances repo.InstanceRepo
	Identity  repo.IdentityRepo
}

// NewRepositories creates all repositories
func NewRepositories(
	evolution RemoteConfig,
	directory RemoteConfig,
	identityDBPath string,
	timeout time.Duration,
	rps float64,
) (*Repositories, error) {
	identityRepo, err := NewIdentityRepo(identityDBPath)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Directory: NewDirectoryRepo(directory, timeout, rps),
		Instances: NewEvolutionRepo(evolution, timeout, rps),
		Identity:  identityRepo,
	}, nil
}

// Close releases held resources.
func (r *Repositories) Close() error {
	return r.Identity.Close()
}
