// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrCredentialMissing indicates the configured credential source is empty.
var ErrCredentialMissing = errors.New("credential not configured")

// CredentialProvider supplies the API credential for a request.
// It is consulted on every call so rotated secrets take effect immediately.
type CredentialProvider interface {
	Credential(ctx context.Context) (string, error)
}

// StaticCredential is a fixed credential, typically injected by a trusted
// server-side component.
type StaticCredential string

// Credential implements CredentialProvider.
func (s StaticCredential) Credential(context.Context) (string, error) {
	key := strings.TrimSpace(string(s))
	if key == "" {
		return "", ErrCredentialMissing
	}
	return key, nil
}

// EnvCredential reads the credential from the named environment variable at
// call time.
type EnvCredential string

// Credential implements CredentialProvider.
func (e EnvCredential) Credential(context.Context) (string, error) {
	key := strings.TrimSpace(os.Getenv(string(e)))
	if key == "" {
		return "", fmt.Errorf("%w: $%s is not set", ErrCredentialMissing, string(e))
	}
	return key, nil
}

type noCredential struct{}

func (noCredential) Credential(context.Context) (string, error) { return "", nil }

// NoCredential sends no credential header. Use it when the endpoint is the
// parley proxy, which attaches the real key upstream.
var NoCredential CredentialProvider = noCredential{}

// Fingerprint returns a short SHA-256 fingerprint of a credential for logging.
// The credential itself must never be logged.
func Fingerprint(credential string) string {
	if credential == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(h[:4])
}
