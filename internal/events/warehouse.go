// Package events forwards storefront and order activity to the
// analytics warehouse and to the marketing automation platform.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/AnitBishwas/swiss-event-handler/internal/model/event"
)

// Warehouse appends event rows to one fixed dataset/table.
type Warehouse struct {
	client  *bigquery.Client
	dataset string
	table   string
	schema  bigquery.Schema
	log     *slog.Logger
}

func NewWarehouse(ctx context.Context,
	projectID, datasetID, tableID string,
	credentialsJSON []byte,
	log *slog.Logger,
) (*Warehouse, error) {
	client, err := bigquery.NewClient(ctx, projectID,
		option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to init bigquery client: %w", err)
	}
	schema, err := bigquery.InferSchema(event.Row{})
	if err != nil {
		return nil, fmt.Errorf("failed to infer event schema: %w", err)
	}
	return &Warehouse{
		client:  client,
		dataset: datasetID,
		table:   tableID,
		schema:  schema,
		log:     log,
	}, nil
}

func (w *Warehouse) Insert(ctx context.Context, rows ...event.Row) error {
	savers := make([]*bigquery.StructSaver, 0, len(rows))
	for i := range rows {
		savers = append(savers, &bigquery.StructSaver{
			Schema:   w.schema,
			InsertID: uuid.NewString(),
			Struct:   rows[i],
		})
	}

	inserter := w.client.Dataset(w.dataset).Table(w.table).Inserter()
	if err := inserter.Put(ctx, savers); err != nil {
		return fmt.Errorf("failed to insert %d event row(s): %w", len(rows), err)
	}
	w.log.LogAttrs(ctx, slog.LevelInfo, "inserted event rows",
		slog.Int("count", len(rows)))
	return nil
}

func (w *Warehouse) Close() error {
	return w.client.Close()
}

// RowOptions carry the identity fields that live outside event_params.
type RowOptions struct {
	UserID    *string
	DeviceID  *string
	SessionID *string
	Timestamp int64
	EventDate string
}

// TransformRow reshapes a raw event payload into the warehouse schema.
// Identity fields are lifted out, everything else becomes event_params
// with string/int/float one-of values. Param order is sorted by key so
// repeated transforms of the same payload are identical.
func TransformRow(raw map[string]any, opts RowOptions) event.Row {
	eventName := "unknown_event"
	if name, ok := raw["event"].(string); ok && name != "" {
		eventName = name
	}

	excluded := map[string]struct{}{
		"event":      {},
		"timestamp":  {},
		"user_id":    {},
		"device_id":  {},
		"session_id": {},
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		if _, skip := excluded[k]; skip {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]event.Param, 0, len(keys))
	for _, k := range keys {
		params = append(params, event.Param{
			Key:   k,
			Value: event.ConvertValue(raw[k]),
		})
	}

	ts := opts.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	date := opts.EventDate
	if date == "" {
		date = time.Now().UTC().Format(time.RFC3339)
	}

	return event.Row{
		Timestamp:   ts,
		EventName:   eventName,
		UserID:      opts.UserID,
		DeviceID:    opts.DeviceID,
		SessionID:   opts.SessionID,
		EventParams: params,
		EventDate:   date,
	}
}
