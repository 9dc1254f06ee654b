package repositories

import (
	"huddle/domain"
	"huddle/domain/content"
	"huddle/errors"
)

// SettingsStore holds the server-wide settings singleton.
// It is not safe for concurrent use: the coordinator owns it.
type SettingsStore struct {
	settings domain.ServerSettings
}

func NewSettingsStore(initial domain.ServerSettings) *SettingsStore {
	initial.OwnerID = ""
	return &SettingsStore{settings: initial}
}

func (s *SettingsStore) Get() domain.ServerSettings {
	return s.settings
}

func (s *SettingsStore) OwnerID() (domain.UserID, bool) {
	return s.settings.OwnerID, s.settings.OwnerID != ""
}

func (s *SettingsStore) IsOwner(id domain.UserID) bool {
	return id != "" && s.settings.OwnerID == id
}

func (s *SettingsStore) SetOwner(id domain.UserID) {
	s.settings.OwnerID = id
}

func (s *SettingsStore) ClearOwner() {
	s.settings.OwnerID = ""
}

// Update merges patch into the settings when actor is the current owner.
// A server name that sanitizes to nothing keeps the previous one.
func (s *SettingsStore) Update(actor domain.UserID, patch domain.SettingsPatch) (domain.ServerSettings, error) {
	if !s.IsOwner(actor) {
		return domain.ServerSettings{}, errors.ErrDenied
	}
	if patch.ServerName != nil {
		name := content.Sanitize(*patch.ServerName)
		if name == "" {
			patch.ServerName = nil
		} else {
			patch.ServerName = &name
		}
	}
	s.settings = s.settings.Merge(patch)
	return s.settings, nil
}
