package auth

import (
	"crypto/subtle"
	"fmt"

	"brincafacil/entity"
)

// Auth matches operator bearer tokens against the configured users.
type Auth struct {
	users []entity.User
}

func New(users []entity.User) *Auth {
	return &Auth{users: users}
}

func (a *Auth) UserByToken(token string) (*entity.User, error) {
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	for i := range a.users {
		u := a.users[i]
		if u.Token == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(u.Token), []byte(token)) == 1 {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}
