package sftp

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/filicious/filicious"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// conn bundles the SSH transport with the SFTP session riding on it and
// the base path resolved against the remote server.
type conn struct {
	ssh  *ssh.Client
	sftp *sftp.Client
	base string
}

func (c *conn) Close() error {
	return errors.Join(c.sftp.Close(), c.ssh.Close())
}

// path maps an adapter-local path onto the remote filesystem under the
// resolved base.
func (c *conn) path(local string) string {
	return path.Join(c.base, path.Clean("/"+local))
}

// dialConn establishes a fresh SSH transport, opens an SFTP session on
// it and resolves the configured base path server-side.
func dialConn(cfg Config) (*conn, error) {
	auth, err := authMethods(cfg)
	if err != nil {
		return nil, err
	}

	hostKey := cfg.HostKeyCallback
	if hostKey == nil {
		hostKey = ssh.InsecureIgnoreHostKey()
	}

	sshClient, err := ssh.Dial("tcp", cfg.addr(), &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.addr(), err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("open sftp session: %w", err)
	}

	base := "/"
	if cfg.BasePath != "" && cfg.BasePath != "/" {
		base, err = sftpClient.RealPath(cfg.BasePath)
		if err != nil {
			sftpClient.Close()
			sshClient.Close()
			return nil, fmt.Errorf("resolve base path %s: %w", cfg.BasePath, err)
		}
	}

	return &conn{ssh: sshClient, sftp: sftpClient, base: base}, nil
}

// authMethods resolves the configured credentials into SSH auth methods.
// A key file wins over an inline key; an inline key whose value names an
// existing local file is read from disk; the password doubles as the
// passphrase when the key turns out to be encrypted.
func authMethods(cfg Config) ([]ssh.AuthMethod, error) {
	material, err := keyMaterial(cfg)
	if err != nil {
		return nil, err
	}

	if len(material) > 0 {
		signer, err := ssh.ParsePrivateKey(material)
		if err != nil {
			var missing *ssh.PassphraseMissingError
			if errors.As(err, &missing) && cfg.Password != "" {
				signer, err = ssh.ParsePrivateKeyWithPassphrase(material, []byte(cfg.Password))
			}
			if err != nil {
				return nil, fmt.Errorf("parse private key: %w", err)
			}
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}

	if cfg.Password != "" {
		return []ssh.AuthMethod{ssh.Password(cfg.Password)}, nil
	}

	return nil, filicious.ErrNoAuth
}

func keyMaterial(cfg Config) ([]byte, error) {
	if cfg.KeyFile != "" {
		data, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		return data, nil
	}

	if len(cfg.Key) == 0 {
		return nil, nil
	}

	// A single-line inline key that names a readable local file is
	// treated as a path to the actual key.
	if s := strings.TrimSpace(string(cfg.Key)); !strings.Contains(s, "\n") {
		if info, err := os.Stat(s); err == nil && info.Mode().IsRegular() {
			data, err := os.ReadFile(s)
			if err != nil {
				return nil, fmt.Errorf("read key file: %w", err)
			}
			return data, nil
		}
	}

	return cfg.Key, nil
}
