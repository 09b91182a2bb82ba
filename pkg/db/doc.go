// Package db provides the PostgreSQL plumbing for the job-metadata store.
//
// It wraps [github.com/jackc/pgx/v5/pgxpool] with environment-based
// configuration, startup retry with exponential backoff, transaction
// helpers, and schema migrations via [github.com/pressly/goose/v3] over an
// embedded FS.
//
// Typical wiring:
//
//	pool, err := db.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	if err := db.Migrate(ctx, pool, migrations.FS, cfg.MigrationsTable, logger); err != nil {
//		log.Fatal(err)
//	}
//
// Configuration comes from environment variables (DATABASE_CONN_URL is the
// only required one); see Config for the full list and defaults.
package db
