// Package adapter selects the observation source named by the configuration.
package adapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/soil-temp-model/internal/adapter/csvsource"
	"github.com/couchcryptid/soil-temp-model/internal/adapter/mysql"
	"github.com/couchcryptid/soil-temp-model/internal/config"
	"github.com/couchcryptid/soil-temp-model/internal/dataset"
)

// Source reads the station, soil and weather tables.
type Source interface {
	dataset.StationSource
	dataset.ObservationSource
}

// OpenSource opens the CSV directory or MySQL database selected by
// cfg.DataSource. The returned close function is never nil, even on error.
func OpenSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Source, func() error, error) {
	switch cfg.DataSource {
	case config.SourceMySQL:
		src, err := mysql.Open(ctx, cfg.MySQLDSN(), logger)
		if err != nil {
			return nil, noopClose, err
		}
		return src, src.Close, nil
	case config.SourceCSV:
		logger.Info("reading observations from csv", "dir", cfg.DataDir)
		return csvsource.New(cfg.DataDir, logger), noopClose, nil
	default:
		return nil, noopClose, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}
}

func noopClose() error { return nil }
