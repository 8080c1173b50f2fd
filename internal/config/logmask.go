// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

const maskedValue = "***redacted***"

// Masked returns a copy of cfg safe to log: the HLS token secret is
// redacted. MainConfig carries no other field that resembles a secret
// (provider credentials live in SourcesConfig, user credentials in
// ApiProxyConfig).
func (c MainConfig) Masked() MainConfig {
	out := c
	if out.HLSToken.Secret != "" {
		out.HLSToken.Secret = maskedValue
	}
	return out
}

// Masked returns a copy of cfg with every input's username/password
// redacted, safe to log.
func (s SourcesConfig) Masked() SourcesConfig {
	out := s
	out.Sources = make([]Source, len(s.Sources))
	for i, src := range s.Sources {
		src.Inputs = make([]Input, len(s.Sources[i].Inputs))
		for j, in := range s.Sources[i].Inputs {
			if in.Username != "" {
				in.Username = maskedValue
			}
			if in.Password != "" {
				in.Password = maskedValue
			}
			src.Inputs[j] = in
		}
		out.Sources[i] = src
	}
	return out
}

// Masked returns a copy of cfg with every user's password redacted.
func (a ApiProxyConfig) Masked() ApiProxyConfig {
	out := a
	out.Users = make([]ApiUser, len(a.Users))
	for i, u := range a.Users {
		if u.Password != "" {
			u.Password = maskedValue
		}
		out.Users[i] = u
	}
	return out
}
