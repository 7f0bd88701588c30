package refund

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/AnitBishwas/swiss-event-handler/internal/serviceerrs"
)

const columnStatus = "Status"
const columnOrderID = "Order ID"

// CollectRTOOrders streams the logistics CSV report and returns the
// deduplicated order names of every return-to-origin row, preserving
// first-seen order. The body is parsed record by record; report files
// can be large and are never buffered whole.
func CollectRTOOrders(ctx context.Context, httpc *resty.Client, reportURL string) ([]string, error) {
	if reportURL == "" {
		return nil, serviceerrs.ErrMissingReportURL
	}

	resp, err := httpc.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(reportURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	body := resp.RawBody()
	defer func() {
		_ = body.Close()
	}()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch report: unexpected status %d", resp.StatusCode())
	}

	return collectFromStream(body)
}

func collectFromStream(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("report is empty")
		}
		return nil, fmt.Errorf("failed to parse report header: %w", err)
	}
	statusIdx, orderIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case columnStatus:
			statusIdx = i
		case columnOrderID:
			orderIdx = i
		}
	}
	if statusIdx < 0 || orderIdx < 0 {
		return nil, fmt.Errorf("report misses required columns %q, %q", columnStatus, columnOrderID)
	}

	seen := make(map[string]struct{})
	var unique []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// a malformed report aborts the whole run, no partial batches
			return nil, fmt.Errorf("failed to parse report row: %w", err)
		}
		if statusIdx >= len(record) || orderIdx >= len(record) {
			continue
		}
		if !strings.Contains(strings.ToLower(record[statusIdx]), "rto") {
			continue
		}

		id := strings.TrimSpace(record[orderIdx])
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique, nil
}
