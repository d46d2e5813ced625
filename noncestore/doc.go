// Package noncestore provides oauth1.NonceStore implementations.
//
// Memory keeps nonces in process and suits a single server instance. SQL
// persists them through bun and suits deployments where several instances
// verify requests for the same consumers; uniqueness is enforced by the
// table's primary key, so the check-and-record step stays atomic across
// processes.
//
//	db, err := noncestore.Open(noncestore.DriverSQLite, "file:nonces.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store, err := noncestore.NewSQL(db)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := store.CreateSchema(ctx); err != nil {
//	    log.Fatal(err)
//	}
package noncestore
