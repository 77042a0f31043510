package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/impactorviz/impactor-cli/internal/raster"
	"github.com/impactorviz/impactor-cli/internal/store"
)

// rasterPathFlag overrides cfg.Raster.Path when set on a command.
var rasterPathFlag string

func openRaster() (*raster.Raster, error) {
	path := rasterPathFlag
	if path == "" {
		path = cfg.Raster.Path
	}
	if path == "" {
		return nil, eris.New("no raster configured: set raster.path or pass --raster")
	}

	var opts []raster.Option
	if cfg.Raster.Proj4 != "" {
		opts = append(opts, raster.WithProj4(cfg.Raster.Proj4))
	}
	if cfg.Raster.Variable != "" {
		opts = append(opts, raster.WithVariable(cfg.Raster.Variable))
	}
	return raster.Open(path, opts...)
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "impactor.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
