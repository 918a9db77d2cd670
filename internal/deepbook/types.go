package deepbook

import (
	"fmt"
	"strings"
)

// eventID identifies one emitted event on chain.
type eventID struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// String renders the id in the "txDigest:eventSeq" form used as the
// opaque cursor and dedup key throughout the daemon.
func (id eventID) String() string {
	return id.TxDigest + ":" + id.EventSeq
}

// parseCursor splits an opaque cursor string back into its parts.
func parseCursor(cursor string) (eventID, error) {
	i := strings.LastIndex(cursor, ":")
	if i <= 0 || i == len(cursor)-1 {
		return eventID{}, fmt.Errorf("malformed cursor %q", cursor)
	}
	return eventID{TxDigest: cursor[:i], EventSeq: cursor[i+1:]}, nil
}

// queryEventsResult is the suix_queryEvents response payload.
type queryEventsResult struct {
	Data        []rawEvent `json:"data"`
	NextCursor  *eventID   `json:"nextCursor"`
	HasNextPage bool       `json:"hasNextPage"`
}

// rawEvent is one event as returned by the fullnode.
type rawEvent struct {
	ID         eventID        `json:"id"`
	Type       string         `json:"type"`
	ParsedJSON orderFilledRaw `json:"parsedJson"`
}

// orderFilledRaw is the Move event payload of an order fill.
// u64 fields arrive as decimal strings.
type orderFilledRaw struct {
	PoolID       string `json:"pool_id"`
	Price        string `json:"price"`
	BaseQuantity string `json:"base_quantity"`
	TakerIsBid   bool   `json:"taker_is_bid"`
}
