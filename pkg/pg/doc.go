// Package pg bootstraps PostgreSQL access on top of pgx/v5.
//
// It covers the pieces every store in the service needs before it can run a
// query: a pooled connection with retry, goose migrations read from an
// embedded filesystem, a transaction helper, a health check and a handful of
// SQLSTATE classifiers.
//
// # Usage
//
//	var cfg pg.Config
//	if err := env.Parse(&cfg); err != nil {
//		panic(err)
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		panic(err)
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, notifications.Migrations, slog.Default()); err != nil {
//		panic(err)
//	}
//
//	err = pg.WithTx(ctx, pool, func(tx pgx.Tx) error {
//		_, err := tx.Exec(ctx, "DELETE FROM notification_recipients WHERE user_id = $1", userID)
//		return err
//	})
//
// # Configuration
//
// Config is populated from PG_* environment variables; see the struct tags
// for names and defaults.
//
// # Error Handling
//
// [IsDuplicateKeyError], [IsForeignKeyViolationError] and
// [IsSerializationFailure] unwrap *pgconn.PgError so business code can branch
// on SQLSTATE without importing pgconn.
package pg
