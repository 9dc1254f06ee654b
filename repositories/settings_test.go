package repositories

import (
	"testing"

	"huddle/domain"
	"huddle/errors"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func defaultSettings() domain.ServerSettings {
	return domain.ServerSettings{
		AllowHistoryForNewUsers: true,
		MaxMessageLength:        1000,
		AllowAttachments:        true,
		AllowVoiceChat:          true,
		ServerName:              "Chat Server",
	}
}

func TestSettingsStore_Update_OwnerOnly(t *testing.T) {
	req := require.New(t)
	store := NewSettingsStore(defaultSettings())

	// Given nobody owns the server
	_, err := store.Update("a", domain.SettingsPatch{AllowVoiceChat: lo.ToPtr(false)})
	req.ErrorIs(err, errors.ErrDenied)

	// Given a non owner
	store.SetOwner("a")
	_, err = store.Update("b", domain.SettingsPatch{AllowVoiceChat: lo.ToPtr(false)})
	req.ErrorIs(err, errors.ErrDenied)
	req.True(store.Get().AllowVoiceChat)

	// When the owner patches one field
	updated, err := store.Update("a", domain.SettingsPatch{AllowVoiceChat: lo.ToPtr(false), ServerName: lo.ToPtr(" <Lobby> ")})
	req.NoError(err)

	// Then only that field changes
	expected := defaultSettings()
	expected.AllowVoiceChat = false
	expected.ServerName = "Lobby"
	expected.OwnerID = "a"
	req.Equal(expected, updated)
	req.Equal(expected, store.Get())
}

func TestSettingsStore_Update_BlankNameIsKept(t *testing.T) {
	req := require.New(t)
	store := NewSettingsStore(defaultSettings())
	store.SetOwner("a")

	updated, err := store.Update("a", domain.SettingsPatch{ServerName: lo.ToPtr("<>")})
	req.NoError(err)
	req.Equal("Chat Server", updated.ServerName)
}

func TestSettingsStore_Owner(t *testing.T) {
	req := require.New(t)
	initial := defaultSettings()
	initial.OwnerID = "stale"
	store := NewSettingsStore(initial)

	_, ok := store.OwnerID()
	req.False(ok)

	store.SetOwner("a")
	id, ok := store.OwnerID()
	req.True(ok)
	req.Equal(domain.UserID("a"), id)
	req.True(store.IsOwner("a"))
	req.False(store.IsOwner(""))

	store.ClearOwner()
	_, ok = store.OwnerID()
	req.False(ok)
}
