// Package store defines the persistence contracts consumed by the queue core:
// a metadata store with whole-collection read/write semantics and change
// notification, and a payload store for heavy candidate payloads. Typed
// helpers marshal the domain collections in and out of the metadata store.
//
// The metadata store offers no partial update and no cross-operation
// transactions; callers must read-modify-write whole collections. The queue
// serializes those writes through a single in-process mutex.
package store
