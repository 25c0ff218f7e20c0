// Package mocks provides in-memory implementations of the store interfaces
// for service and handler tests.
//
// MemoryDB holds every table in maps behind a single mutex. Its Transactor
// serializes transactions and rolls back to a snapshot when the unit of work
// fails, so services can be tested for atomicity without PostgreSQL:
//
//	db := mocks.NewMemoryDB()
//	db.SeedDomains(domain.KnowledgeDomain{Code: "algebra", Weight: 1})
//	svc, err := review.NewService(db.Stores(), db, srsService, integrator, locker, logger)
//
// Set Errors[op] to make a single operation fail, e.g.
// db.Errors[mocks.OpReviewUpdate] = errors.New("boom").
package mocks
