package repository

import (
	"github.com/sirupsen/logrus"

	"github.com/infem06/progress/internal/domain"
	"github.com/infem06/progress/internal/store"
)

// UserRepository handles the single practitioner profile.
type UserRepository struct {
	store *store.Store
	log   *logrus.Logger
}

// NewUserRepository creates a new user repository.
func NewUserRepository(st *store.Store, logger *logrus.Logger) *UserRepository {
	return &UserRepository{store: st, log: logger}
}

// Get returns the profile.
func (r *UserRepository) Get() domain.User {
	return r.store.Snapshot().User
}

// Update applies the settings form: empty fields keep their current value,
// a cleared API key is passed as the explicit clearAPIKey flag.
func (r *UserRepository) Update(name, password, apiKey string, clearAPIKey bool) domain.User {
	var updated domain.User
	r.store.Mutate(func(s *store.State) {
		if name != "" {
			s.User.Name = name
		}
		if password != "" {
			s.User.Password = password
		}
		if clearAPIKey {
			s.User.APIKey = ""
		} else if apiKey != "" {
			s.User.APIKey = apiKey
		}
		updated = s.User
	})
	r.log.WithField("user_id", updated.ID).Info("Profile updated")
	return updated
}
