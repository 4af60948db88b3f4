package filicious

import (
	"github.com/gobeaver/beaver-kit/config"
)

// Config is the environment-driven construction surface for adapters.
// Each adapter package registers a factory that reads its own section.
type Config struct {
	// Adapter to construct (local, sftp, memory)
	Adapter string `env:"FILICIOUS_ADAPTER,default:local"`

	// Local adapter configuration
	LocalBasePath string `env:"FILICIOUS_LOCAL_BASE_PATH,default:./storage"`

	// SFTP adapter configuration
	SFTPHost     string `env:"FILICIOUS_SFTP_HOST"`
	SFTPPort     int    `env:"FILICIOUS_SFTP_PORT,default:22"`
	SFTPUsername string `env:"FILICIOUS_SFTP_USERNAME"`
	SFTPPassword string `env:"FILICIOUS_SFTP_PASSWORD"`
	SFTPKey      string `env:"FILICIOUS_SFTP_KEY"`      // inline PEM or path to key file
	SFTPKeyFile  string `env:"FILICIOUS_SFTP_KEY_FILE"` // explicit key file path
	SFTPBasePath string `env:"FILICIOUS_SFTP_BASE_PATH,default:/"`

	// Memory adapter configuration
	MemoryMaxSize int64 `env:"FILICIOUS_MEMORY_MAX_SIZE,default:0"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
