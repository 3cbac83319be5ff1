// Package postgres provides PostgreSQL implementations of the store
// interfaces using database/sql over the pgx stdlib driver. The
// conditional prompt status updates and the sliding-window admission
// primitive rely on the database for their atomicity guarantees, which
// is what makes duplicate dispatch across process instances safe
// without any distributed lock.
package postgres
