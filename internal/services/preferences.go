package services

import (
	"context"

	"fintrack/internal/storage"
)

// Preferences are display settings shared by every identity.
type Preferences struct {
	DarkMode bool `json:"darkMode"`
}

// PreferenceStore persists Preferences in the key-value store.
type PreferenceStore struct {
	kv storage.Store
}

func NewPreferenceStore(kv storage.Store) *PreferenceStore {
	return &PreferenceStore{kv: kv}
}

func (p *PreferenceStore) Load(ctx context.Context) (Preferences, error) {
	dark, err := storage.LoadJSON(ctx, p.kv, storage.KeyDarkMode, false)
	if err != nil {
		return Preferences{}, err
	}
	return Preferences{DarkMode: dark}, nil
}

func (p *PreferenceStore) Save(ctx context.Context, prefs Preferences) error {
	return storage.SaveJSON(ctx, p.kv, storage.KeyDarkMode, prefs.DarkMode)
}
