package deepbook

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jimliudev/pegguard/internal/model"
)

// QueryTradeEvents fetches up to limit order-fill events after the
// given cursor, in ascending order. An empty cursor starts from the
// beginning of the event stream. The returned cursor points past the
// last fetched event, counting events that failed to decode; only when
// the node served nothing does it equal the input cursor. Callers can
// always store the return value.
func (c *Client) QueryTradeEvents(ctx context.Context, cursor string, limit int) ([]model.TradeEvent, string, error) {
	filter := map[string]any{"MoveEventType": c.eventType}

	var cursorParam any
	if cursor != "" {
		id, err := parseCursor(cursor)
		if err != nil {
			return nil, cursor, fmt.Errorf("query trade events: %w", err)
		}
		cursorParam = id
	}

	var result queryEventsResult
	params := []any{filter, cursorParam, limit, false} // false = ascending
	if err := c.callWithRetry(ctx, "suix_queryEvents", params, &result); err != nil {
		return nil, cursor, fmt.Errorf("query trade events: %w", err)
	}

	events := make([]model.TradeEvent, 0, len(result.Data))
	for _, raw := range result.Data {
		ev, err := convertEvent(raw)
		if err != nil {
			// One malformed event must not poison the page.
			c.logger.Warn("skipping malformed event",
				"event_id", raw.ID.String(),
				"error", err,
			)
			continue
		}
		events = append(events, ev)
	}

	next := cursor
	if result.NextCursor != nil {
		next = result.NextCursor.String()
	}

	return events, next, nil
}

// convertEvent maps a raw fullnode event to the domain type.
func convertEvent(raw rawEvent) (model.TradeEvent, error) {
	price, err := strconv.ParseInt(raw.ParsedJSON.Price, 10, 64)
	if err != nil {
		return model.TradeEvent{}, fmt.Errorf("parse price %q: %w", raw.ParsedJSON.Price, err)
	}

	// base_quantity is optional on some fill variants.
	var qty int64
	if raw.ParsedJSON.BaseQuantity != "" {
		qty, err = strconv.ParseInt(raw.ParsedJSON.BaseQuantity, 10, 64)
		if err != nil {
			return model.TradeEvent{}, fmt.Errorf("parse quantity %q: %w", raw.ParsedJSON.BaseQuantity, err)
		}
	}

	side := model.SideSell
	if raw.ParsedJSON.TakerIsBid {
		side = model.SideBuy
	}

	return model.TradeEvent{
		EventID:      raw.ID.String(),
		MarketID:     raw.ParsedJSON.PoolID,
		Price:        price,
		Side:         side,
		Quantity:     qty,
		SourceCursor: raw.ID.String(),
	}, nil
}
