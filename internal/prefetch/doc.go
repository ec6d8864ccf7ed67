// Package prefetch provides a generic paged buffer that stays filled ahead of
// a consumer.
//
// A Queue holds items in fetch order with no duplicate keys. Consumers report
// their position with OnConsumptionAdvance; once it comes within the
// threshold of the end, the queue fetches the next page with the cursor the
// previous page returned. At most one fetch runs at a time.
//
// Sources can return pages where nothing passes the admissibility filter.
// Those are re-fetched immediately, but only MaxEmptyPages times in a row;
// after that the queue reports Empty and waits for Retry.
package prefetch
