package internal

import (
	"fmt"
	"time"

	"huddle/domain"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=3000" validate:"min=1,max=65535"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	CommandBufferSize    int           `env:"COMMAND_BUFFER_SIZE,default=256" validate:"min=0"`
	DeliveryBufferSize   int           `env:"DELIVERY_BUFFER_SIZE,default=256" validate:"min=0"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64" validate:"min=1"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s" validate:"gt=0"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	PingInterval         time.Duration `env:"PING_INTERVAL,default=25s" validate:"gt=0"`
	PongWait             time.Duration `env:"PONG_WAIT,default=60s" validate:"gtfield=PingInterval"`
	WriteWait            time.Duration `env:"WRITE_WAIT,default=10s" validate:"gt=0"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s" validate:"gt=0"`
	MaxFrameBytes        int64         `env:"MAX_FRAME_BYTES,default=65536" validate:"min=512"`

	ServerName       string `env:"SERVER_NAME,default=Chat Server" validate:"min=1,max=100"`
	AllowHistory     bool   `env:"ALLOW_HISTORY,default=true"`
	MaxMessageLength int    `env:"MAX_MESSAGE_LENGTH,default=1000" validate:"min=1,max=10000"`
	AllowAttachments bool   `env:"ALLOW_ATTACHMENTS,default=true"`
	AllowVoiceChat   bool   `env:"ALLOW_VOICE_CHAT,default=true"`

	UploadDir          string `env:"UPLOAD_DIR,default=./uploads" validate:"required"`
	UploadMaxBytes     int64  `env:"UPLOAD_MAX_BYTES,default=10485760" validate:"min=1"`
	UploadPublicPrefix string `env:"UPLOAD_PUBLIC_PREFIX,default=/uploads/" validate:"startswith=/,endswith=/"`

	// Empty disables the journal
	JournalPath string `env:"JOURNAL_PATH"`
	DebugPort   int    `env:"DEBUG_PORT,default=8081"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// InitialSettings is the settings singleton the server starts with. Nobody owns it yet.
func (c Config) InitialSettings() domain.ServerSettings {
	return domain.ServerSettings{
		AllowHistoryForNewUsers: c.AllowHistory,
		MaxMessageLength:        c.MaxMessageLength,
		AllowAttachments:        c.AllowAttachments,
		AllowVoiceChat:          c.AllowVoiceChat,
		ServerName:              c.ServerName,
	}
}
