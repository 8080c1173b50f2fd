// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"crypto/subtle"
	"time"

	"github.com/ManuGH/xg2g/internal/config"
)

// Authenticator validates locally-issued credentials from the live
// ApiProxyConfig snapshot, implementing proxy.UserAuthenticator. Reading
// through the config Manager on every call means a hot-reloaded user
// list takes effect on the very next request, with no cache to bust.
type Authenticator struct {
	configs *config.Manager
}

// NewAuthenticator builds an Authenticator reading from cfgMgr's
// ApiProxyConfig artifact.
func NewAuthenticator(cfgMgr *config.Manager) *Authenticator {
	return &Authenticator{configs: cfgMgr}
}

// Authenticate implements proxy.UserAuthenticator.
func (a *Authenticator) Authenticate(username, password string) (maxConnections int, expired bool, ok bool) {
	for _, u := range a.configs.ApiProxy().Users {
		if !constantTimeEqual(u.Username, username) {
			continue
		}
		if !constantTimeEqual(u.Password, password) {
			return 0, false, false
		}
		if u.Expires != nil && time.Now().After(*u.Expires) {
			return u.MaxConnections, true, true
		}
		return u.MaxConnections, false, true
	}
	return 0, false, false
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
