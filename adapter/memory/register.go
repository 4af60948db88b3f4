package memory

import "github.com/filicious/filicious"

func init() {
	filicious.RegisterAdapter("memory", func(cfg *filicious.Config) (filicious.Adapter, error) {
		return New(Config{MaxSize: cfg.MemoryMaxSize}), nil
	})
}
