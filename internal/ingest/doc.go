// Package ingest runs the analysis pipeline that makes uploaded media
// searchable.
//
// For one item the pipeline:
//
//  1. marks it analyzing
//  2. asks the analyzer for a description (failure fails the item)
//  3. asks for tags, then topics (failure degrades each to ["N/A"])
//  4. embeds "description tags topics" (failure leaves the embedding empty)
//  5. saves the result with status ready
//
// A failed item is saved with status error, a fixed failure description,
// ["N/A"] tags and topics, an empty embedding and the error message.
//
// Analyzer calls share one token-bucket limiter. ProcessBatch spreads items
// over a bounded worker pool; Reprocess reruns every item in a status and
// refuses to start while another Reprocess is running.
package ingest
