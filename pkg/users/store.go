package users

import (
	"bufio"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Common errors for credential checks.
var (
	// ErrInvalidCredentials is returned when the username is unknown or
	// the password does not match. The two cases are deliberately not
	// distinguished to avoid leaking which usernames exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnavailable is returned when the users file cannot be opened.
	ErrUnavailable = errors.New("users file unavailable")
)

// Store is a credential oracle backed by a users file.
//
// The file holds one "username:password" entry per line. Lines starting
// with '#', empty lines, and lines without a colon are skipped. The
// password field is either plaintext or a bcrypt hash (entries starting
// with "$2"), so hashed entries can be introduced file by file without a
// migration.
//
// The file is re-read on every operation: edits take effect without a
// restart, and a file that disappears surfaces as ErrUnavailable on the
// next call. Entries keep file order, which LIST preserves.
type Store struct {
	path string
}

// NewStore creates a Store reading credentials from the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the backing users file.
func (s *Store) Path() string {
	return s.path
}

// entry is one parsed users-file line.
type entry struct {
	name   string
	secret string
}

// load reads and parses the backing file.
func (s *Store) load() ([]entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	return parseEntries(f), nil
}

// parseEntries reads "username:password" lines, skipping comments, empty
// lines, and lines without a colon.
func parseEntries(r io.Reader) []entry {
	var entries []entry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, secret, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			continue
		}

		entries = append(entries, entry{name: name, secret: secret})
	}

	return entries
}

// Authenticate verifies a username/password pair against the users file.
//
// Returns nil on success, ErrInvalidCredentials when the pair does not
// match, and ErrUnavailable when the file cannot be read.
func (s *Store) Authenticate(username, password string) error {
	entries, err := s.load()
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.name != username {
			continue
		}
		if verifySecret(password, e.secret) {
			return nil
		}
		return ErrInvalidCredentials
	}

	return ErrInvalidCredentials
}

// Exists reports whether a username appears in the users file.
func (s *Store) Exists(username string) (bool, error) {
	entries, err := s.load()
	if err != nil {
		return false, err
	}

	for _, e := range entries {
		if e.name == username {
			return true, nil
		}
	}

	return false, nil
}

// List returns all usernames in file order.
func (s *Store) List() ([]string, error) {
	entries, err := s.load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}

	return names, nil
}

// verifySecret compares a password against a stored secret. Secrets
// starting with "$2" are bcrypt hashes; anything else is compared as
// plaintext in constant time.
func verifySecret(password, secret string) bool {
	if strings.HasPrefix(secret, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(secret), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(password)) == 1
}

// HashPassword creates a bcrypt hash suitable for a users-file entry.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
