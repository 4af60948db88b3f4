package sftp

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/ssh"
)

// Recognized configuration option keys.
const (
	OptHost     = "HOST"
	OptPort     = "PORT"
	OptUsername = "USERNAME"
	OptPassword = "PASSWORD"
	OptKey      = "KEY"
	OptKeyFile  = "KEY_FILE"
	OptBasePath = "BASEPATH"
)

// DefaultPort is the standard SSH port used when none is configured.
const DefaultPort = 22

// Config holds SFTP connection configuration. Key material is selected
// mutually exclusively: an explicit KeyFile wins, an inline Key that
// names an existing local file is read from disk, and a Password next to
// key material acts as the key's decryption passphrase rather than as a
// password authentication method.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Key      []byte // PEM encoded private key, or the path of one
	KeyFile  string
	BasePath string

	// HostKeyCallback verifies the server key; nil accepts any host key.
	HostKeyCallback ssh.HostKeyCallback

	// Timeout bounds the TCP dial; zero means no deadline.
	Timeout time.Duration
}

// Set applies a single recognized option. Callers mutate a live
// adapter's configuration through Adapter.Set, which forwards here and
// then raises the configuration-change notification.
func (c *Config) Set(key, value string) error {
	switch key {
	case OptHost:
		c.Host = value
	case OptPort:
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", value, err)
		}
		c.Port = port
	case OptUsername:
		c.Username = value
	case OptPassword:
		c.Password = value
	case OptKey:
		c.Key = []byte(value)
	case OptKeyFile:
		c.KeyFile = value
	case OptBasePath:
		c.BasePath = value
	default:
		return fmt.Errorf("unrecognized option %q", key)
	}
	return nil
}

// Identity derives the opaque connection identity from every field that
// affects either the transport endpoint or the resolved base path. Two
// configurations share an identity exactly when an existing connection
// established under one remains valid under the other.
func (c *Config) Identity() string {
	d := xxhash.New()
	for _, field := range []string{
		c.Host,
		strconv.Itoa(c.port()),
		c.Username,
		c.Password,
		string(c.Key),
		c.KeyFile,
		c.BasePath,
	} {
		d.WriteString(field)
		d.Write([]byte{0})
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

func (c *Config) port() int {
	if c.Port == 0 {
		return DefaultPort
	}
	return c.Port
}

func (c *Config) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.port()))
}
