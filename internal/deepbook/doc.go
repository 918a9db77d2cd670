// Package deepbook queries trade-fill events from a Sui fullnode.
//
// The client speaks the suix_queryEvents JSON-RPC method with an opaque
// resumption cursor and ascending delivery order, which is exactly the
// polling contract the event poller requires. Transient RPC failures
// are retried with jittered exponential backoff; an empty page is a
// normal result, not an error.
package deepbook
