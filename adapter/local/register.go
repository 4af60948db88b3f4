package local

import "github.com/filicious/filicious"

func init() {
	filicious.RegisterAdapter("local", func(cfg *filicious.Config) (filicious.Adapter, error) {
		return New(cfg.LocalBasePath), nil
	})
}
