// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store, plus connection setup and the
// embedded goose schema migrations.
//
// Stores accept a store.DBTX so the same code runs against a *sql.DB or a
// *sql.Tx. Driver errors are translated to store sentinels by MapError.
package postgres
