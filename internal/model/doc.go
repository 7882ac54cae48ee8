// Package model defines the data structures shared across onioncrawl.
//
// The central type is PageRecord, the unit handed from a crawl worker to
// the persistence layer. Records are created by exactly one worker and
// owned by the store after Save; workers never mutate a record once it
// has been handed off.
package model
