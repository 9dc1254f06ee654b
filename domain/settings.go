package domain

// ServerSettings is the server-wide policy singleton.
// OwnerID is empty when nobody owns the server.
type ServerSettings struct {
	AllowHistoryForNewUsers bool   `json:"allowHistoryForNewUsers"`
	MaxMessageLength        int    `json:"maxMessageLength"`
	AllowAttachments        bool   `json:"allowAttachments"`
	AllowVoiceChat          bool   `json:"allowVoiceChat"`
	ServerName              string `json:"serverName"`
	OwnerID                 UserID `json:"ownerId,omitempty"`
}

// SettingsPatch carries the fields an owner wants to overwrite.
// Nil fields are retained. The owner cannot be changed through a patch.
type SettingsPatch struct {
	AllowHistoryForNewUsers *bool   `json:"allowHistoryForNewUsers,omitempty"`
	MaxMessageLength        *int    `json:"maxMessageLength,omitempty" validate:"omitempty,min=1,max=10000"`
	AllowAttachments        *bool   `json:"allowAttachments,omitempty"`
	AllowVoiceChat          *bool   `json:"allowVoiceChat,omitempty"`
	ServerName              *string `json:"serverName,omitempty" validate:"omitempty,max=100"`
}

// Merge applies a shallow merge of the patch onto a copy of the settings.
func (s ServerSettings) Merge(p SettingsPatch) ServerSettings {
	if p.AllowHistoryForNewUsers != nil {
		s.AllowHistoryForNewUsers = *p.AllowHistoryForNewUsers
	}
	if p.MaxMessageLength != nil {
		s.MaxMessageLength = *p.MaxMessageLength
	}
	if p.AllowAttachments != nil {
		s.AllowAttachments = *p.AllowAttachments
	}
	if p.AllowVoiceChat != nil {
		s.AllowVoiceChat = *p.AllowVoiceChat
	}
	if p.ServerName != nil {
		s.ServerName = *p.ServerName
	}
	return s
}
