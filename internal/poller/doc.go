// Package poller implements the Event Poller component.
//
// The Event Poller:
//   - Drives the monitoring loop on a fixed, explicitly configured
//     interval
//   - Fetches trade-fill events after the stored resumption cursor and
//     advances the cursor only once a batch is fully handed off
//     (at-least-once delivery)
//   - Updates last prices and evaluates the floor trigger per event,
//     sequentially within a batch
//   - Skips a tick outright while a previous cycle is still in flight
//   - Isolates per-event failures so one bad event cannot stall the
//     other markets
package poller
