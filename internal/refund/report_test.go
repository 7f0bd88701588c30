package refund

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnitBishwas/swiss-event-handler/internal/serviceerrs"
)

func serveCSV(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte(body))
		}))
}

func TestCollectRTOOrders(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want []string
	}{
		{
			"duplicates collapse to first seen",
			"Status,Order ID\n" +
				"RTO Delivered,1001\n" +
				"Delivered,1002\n" +
				"rto-intransit,1001\n",
			[]string{"1001"},
		},
		{
			"case insensitive substring match",
			"Status,Order ID\n" +
				"Rto Initiated,2001\n" +
				"IN TRANSIT,2002\n" +
				"marked RTO by courier,2003\n",
			[]string{"2001", "2003"},
		},
		{
			"order preserved across rows",
			"Status,Order ID\n" +
				"rto,30\n" +
				"rto,10\n" +
				"rto,20\n" +
				"rto,10\n",
			[]string{"30", "10", "20"},
		},
		{
			"no rto rows",
			"Status,Order ID\n" +
				"Delivered,1\n" +
				"In Transit,2\n",
			nil,
		},
		{
			"extra columns and blank ids ignored",
			"AWB,Status,Order ID\n" +
				"a1,rto delivered,4001\n" +
				"a2,rto delivered,\n",
			[]string{"4001"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveCSV(t, tt.csv)
			defer srv.Close()

			got, err := CollectRTOOrders(
				context.Background(), resty.New(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollectRTOOrders_MissingURL(t *testing.T) {
	_, err := CollectRTOOrders(context.Background(), resty.New(), "")
	assert.ErrorIs(t, err, serviceerrs.ErrMissingReportURL)
}

func TestCollectRTOOrders_MissingColumns(t *testing.T) {
	srv := serveCSV(t, "AWB,Courier\nx,y\n")
	defer srv.Close()

	_, err := CollectRTOOrders(context.Background(), resty.New(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required columns")
}

func TestCollectRTOOrders_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
	defer srv.Close()

	_, err := CollectRTOOrders(context.Background(), resty.New(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}

func TestCollectFromStream_MalformedReportAborts(t *testing.T) {
	// a quote opened mid-row makes the csv reader fail
	broken := "Status,Order ID\n" +
		"rto,1001\n" +
		"\"rto,1002\n"
	_, err := collectFromStream(strings.NewReader(broken))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse report")
}
