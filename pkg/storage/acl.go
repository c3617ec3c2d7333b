package storage

import (
	"fmt"
	"slices"
)

// CheckRead returns nil when user may read name: the owner always passes,
// otherwise membership in READ_USERS decides. A missing sidecar denies.
func (s *Store) CheckRead(name, user string) error {
	meta, err := s.readMetadata(name)
	if err != nil {
		return ErrNoReadAccess
	}
	if meta.Owner == user || slices.Contains(meta.ReadUsers, user) {
		return nil
	}
	return ErrNoReadAccess
}

// CheckWrite returns nil when user may write name.
func (s *Store) CheckWrite(name, user string) error {
	meta, err := s.readMetadata(name)
	if err != nil {
		return ErrNoWriteAccess
	}
	if meta.Owner == user || slices.Contains(meta.WriteUsers, user) {
		return nil
	}
	return ErrNoWriteAccess
}

// Owner returns the owner recorded in the sidecar.
func (s *Store) Owner(name string) (string, error) {
	meta, err := s.readMetadata(name)
	if err != nil {
		return "", err
	}
	return meta.Owner, nil
}

// AddRead grants user read access. The bool reports whether the list
// changed; false means the user was already present.
func (s *Store) AddRead(name, user string) (bool, error) {
	return s.addAccess(name, user, false)
}

// AddWrite grants user write access.
func (s *Store) AddWrite(name, user string) (bool, error) {
	return s.addAccess(name, user, true)
}

func (s *Store) addAccess(name, user string, write bool) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	meta, err := s.readMetadata(name)
	if err != nil {
		return false, err
	}

	list := &meta.ReadUsers
	if write {
		list = &meta.WriteUsers
	}
	if slices.Contains(*list, user) {
		return false, nil
	}
	*list = append(*list, user)

	if err := s.writeMetadata(name, meta); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveAccess revokes both read and write access for user. Revoking the
// owner is rejected.
func (s *Store) RemoveAccess(name, user string) error {
	if err := checkName(name); err != nil {
		return err
	}
	meta, err := s.readMetadata(name)
	if err != nil {
		return err
	}
	if meta.Owner == user {
		return fmt.Errorf("cannot revoke owner %q", user)
	}

	meta.ReadUsers = slices.DeleteFunc(meta.ReadUsers, func(u string) bool { return u == user })
	meta.WriteUsers = slices.DeleteFunc(meta.WriteUsers, func(u string) bool { return u == user })

	return s.writeMetadata(name, meta)
}
