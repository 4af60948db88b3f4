package sftp

import "github.com/filicious/filicious"

func init() {
	filicious.RegisterAdapter("sftp", func(cfg *filicious.Config) (filicious.Adapter, error) {
		return New(Config{
			Host:     cfg.SFTPHost,
			Port:     cfg.SFTPPort,
			Username: cfg.SFTPUsername,
			Password: cfg.SFTPPassword,
			Key:      []byte(cfg.SFTPKey),
			KeyFile:  cfg.SFTPKeyFile,
			BasePath: cfg.SFTPBasePath,
		}), nil
	})
}
