package main

import (
	"github.com/backmassage/candplot/internal/catalog"
	"github.com/backmassage/candplot/internal/config"
	"github.com/backmassage/candplot/internal/logging"
)

// buildCatalog chains the configured DM sources (YAML table, SQLite
// database, psrcat) behind a cache. Sources that cannot be opened are
// logged and left out; with none left every expected DM shows as unknown.
// The returned func releases the database handle.
func buildCatalog(cfg *config.Config, log *logging.Logger) (catalog.Lookup, func()) {
	var chain catalog.Chain
	closer := func() {}

	if cfg.CatalogFile != "" {
		t, err := catalog.LoadTable(cfg.CatalogFile)
		if err != nil {
			log.Warn("DM table disabled: %v", err)
		} else {
			log.Debug(cfg.Verbose, "DM table: %d sources from %s", t.Len(), cfg.CatalogFile)
			chain = append(chain, t)
		}
	}
	if cfg.CatalogDB != "" {
		db, err := catalog.OpenSQLite(cfg.CatalogDB)
		if err != nil {
			log.Warn("DM database disabled: %v", err)
		} else {
			log.Debug(cfg.Verbose, "DM database: %s", cfg.CatalogDB)
			chain = append(chain, db)
			closer = func() { db.Close() }
		}
	}
	if cfg.Psrcat != "" {
		p := catalog.Psrcat{Bin: cfg.Psrcat}
		if p.Available() {
			chain = append(chain, p)
		} else {
			log.Debug(cfg.Verbose, "psrcat (%s) not found; skipping", cfg.Psrcat)
		}
	}

	if len(chain) == 0 {
		log.Warn("No DM catalogue available; expected DMs will show as unknown")
		return nil, closer
	}
	return catalog.NewMemo(chain), closer
}
