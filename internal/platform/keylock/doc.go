// Package keylock serializes work on a single key, such as a diagnostic
// session or a (user, item) review record. MemoryLocker covers a single
// process; RedisLocker extends the guarantee across instances. Both are
// combined with row locks inside the store transaction.
package keylock
