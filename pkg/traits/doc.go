// Package traits gives Go objects typed, validated attributes with lazily
// computed defaults, cross-attribute validation, change notification and
// transactional batch updates.
//
// A Class is an immutable registry of trait Descriptors merged along the C3
// linearization of its parents. An Object holds per-instance values for the
// traits of its Class. Writes pass through type validation and the class's
// cross validators before they are committed; committed changes are reported
// to observers as ChangeRecords. HoldNotifications groups writes so that cross
// validation and notification run once at the end, with full rollback on
// failure.
//
// The package performs no internal synchronization. Callers that share an
// Object across goroutines must serialize access themselves.
package traits
