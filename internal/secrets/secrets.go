// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory is one secret: the filename is the key and the
// trimmed file contents are the value.
//
// Recognized keys: sec-user-agent (full User-Agent header) and
// sec-contact-email (combined with the program name when no full header is set).
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Key names read from the secrets directory.
const (
	KeyUserAgent    = "sec-user-agent"
	KeyContactEmail = "sec-contact-email"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logrus.WithError(err).WithField("secret", name).Warn("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// UserAgent picks the User-Agent header from loaded secrets. A full
// sec-user-agent value wins; otherwise sec-contact-email is appended to
// product. Returns "" when neither key is present.
func UserAgent(secrets map[string]string, product string) string {
	if ua := secrets[KeyUserAgent]; ua != "" {
		return ua
	}
	if email := secrets[KeyContactEmail]; email != "" {
		return product + " " + email
	}
	return ""
}
