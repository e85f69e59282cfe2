// Package cloud defines the provider-neutral view of the managed server.
//
// The lifecycle controllers only see [Instance] and [Snapshot] values and a
// [Provider] that lists, reads, creates and deletes them. Concrete providers
// live under internal/platform and translate every failure into an [*Error]
// carrying an [ErrorKind], so callers can tell a caller mistake from an
// exhausted retry budget or a timed-out poll without parsing messages.
package cloud
