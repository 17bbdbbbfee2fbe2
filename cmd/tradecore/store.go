package main

import (
	"fmt"

	"github.com/zsmartex/tradecore/config"
	"github.com/zsmartex/tradecore/store"
	"github.com/zsmartex/tradecore/store/gormstore"
	"github.com/zsmartex/tradecore/store/pebblestore"
)

func openStore(cfg config.DatabaseConfig) (store.Store, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := config.NewDatabase(cfg)
		if err != nil {
			return nil, err
		}

		return gormstore.New(db), nil
	case "pebble":
		return pebblestore.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
