package refund

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnitBishwas/swiss-event-handler/internal/model/order"
	"github.com/AnitBishwas/swiss-event-handler/internal/shopify"
	"github.com/AnitBishwas/swiss-event-handler/internal/throttle"
)

type fakeOrderAPI struct {
	orders      map[string]*order.Resolved
	resolveErrs map[string]error
	refundErrs  map[string]error
	budget      int

	resolved []string
	refunded []string
}

func (f *fakeOrderAPI) FindOrderByName(_ context.Context, name string,
) (*order.Resolved, shopify.Cost, error) {
	f.resolved = append(f.resolved, name)
	cost := shopify.Cost{CurrentlyAvailable: f.budget}
	if err := f.resolveErrs[name]; err != nil {
		return nil, cost, err
	}
	ord, ok := f.orders[name]
	if !ok {
		return nil, cost, errors.New("no order found")
	}
	return ord, cost, nil
}

func (f *fakeOrderAPI) CreateRefund(_ context.Context, ord *order.Resolved,
) (string, shopify.Cost, error) {
	cost := shopify.Cost{CurrentlyAvailable: f.budget}
	if err := f.refundErrs[ord.Name]; err != nil {
		return "", cost, err
	}
	f.refunded = append(f.refunded, ord.Name)
	return "gid://shopify/Refund/1", cost, nil
}

type fakeMailer struct {
	subject string
	body    string
	sends   int
	err     error
}

func (f *fakeMailer) Send(_ context.Context, subject, htmlBody string) error {
	f.sends++
	f.subject = subject
	f.body = htmlBody
	return f.err
}

func testOrder(name, amount string, partiallyPaid, cod bool) *order.Resolved {
	return &order.Resolved{
		ID:            "77" + name,
		Name:          name,
		RefundAmount:  decimal.RequireFromString(amount),
		PartiallyPaid: partiallyPaid,
		COD:           cod,
		LineItems:     []order.LineItem{{ID: "li-" + name, Quantity: 1}},
	}
}

func testWorkflow(api OrderAPI, mail Mailer) *Workflow {
	w := New(api, mail, slog.Default())
	w.resolveGuard = throttle.NewCostGuard(throttle.DefaultCostThreshold, time.Millisecond)
	w.refundGuard = throttle.NewCostGuard(throttle.DefaultCostThreshold, time.Millisecond)
	return w
}

func serveReport(t *testing.T, rows string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("Status,Order ID\n" + rows))
		}))
}

func TestWorkflow_Run_EligibilityFiltering(t *testing.T) {
	api := &fakeOrderAPI{
		budget: 1000,
		orders: map[string]*order.Resolved{
			"1001": testOrder("1001", "500", false, false),
			"1002": testOrder("1002", "0", false, false),
			"1003": testOrder("1003", "300", true, false),
			"1004": testOrder("1004", "300", false, true),
		},
	}
	mail := &fakeMailer{}
	srv := serveReport(t,
		"rto,1001\nrto,1002\nrto,1003\nrto,1004\n")
	defer srv.Close()

	require.NoError(t, testWorkflow(api, mail).Run(context.Background(), srv.URL))

	assert.Equal(t, []string{"1001", "1002", "1003", "1004"}, api.resolved)
	assert.Equal(t, []string{"1001"}, api.refunded,
		"only the eligible order reaches submission")
	assert.Equal(t, 1, mail.sends)
	assert.Contains(t, mail.body, "1001")
	assert.NotContains(t, mail.body, "1003")
}

func TestWorkflow_Run_PartialFailureIsolation(t *testing.T) {
	api := &fakeOrderAPI{
		budget: 1000,
		orders: map[string]*order.Resolved{
			"A": testOrder("A", "100", false, false),
			"B": testOrder("B", "200", false, false),
			"C": testOrder("C", "300.25", false, false),
		},
		refundErrs: map[string]error{
			"B": errors.New("gateway rejected"),
		},
	}
	mail := &fakeMailer{}
	srv := serveReport(t, "rto,A\nrto,B\nrto,C\n")
	defer srv.Close()

	require.NoError(t, testWorkflow(api, mail).Run(context.Background(), srv.URL))

	assert.Equal(t, []string{"A", "C"}, api.refunded,
		"a failed refund must not abort the batch")
	assert.Contains(t, mail.body, "400.25",
		"total is the sum of exactly the succeeded orders")
	assert.NotContains(t, mail.body, ">B<")
}

func TestWorkflow_Run_ResolutionFailureIsolation(t *testing.T) {
	api := &fakeOrderAPI{
		budget: 1000,
		orders: map[string]*order.Resolved{
			"1": testOrder("1", "10", false, false),
			"3": testOrder("3", "30", false, false),
		},
		resolveErrs: map[string]error{
			"2": errors.New("upstream timeout"),
		},
	}
	mail := &fakeMailer{}
	srv := serveReport(t, "rto,1\nrto,2\nrto,3\n")
	defer srv.Close()

	require.NoError(t, testWorkflow(api, mail).Run(context.Background(), srv.URL))

	assert.Equal(t, []string{"1", "2", "3"}, api.resolved)
	assert.Equal(t, []string{"1", "3"}, api.refunded)
}

func TestWorkflow_Run_MailFailureIsSwallowed(t *testing.T) {
	api := &fakeOrderAPI{
		budget: 1000,
		orders: map[string]*order.Resolved{
			"1": testOrder("1", "10", false, false),
		},
	}
	mail := &fakeMailer{err: errors.New("ses unavailable")}
	srv := serveReport(t, "rto,1\n")
	defer srv.Close()

	assert.NoError(t, testWorkflow(api, mail).Run(context.Background(), srv.URL))
}

func TestWorkflow_Run_MissingReportURL(t *testing.T) {
	api := &fakeOrderAPI{budget: 1000}
	mail := &fakeMailer{}

	err := testWorkflow(api, mail).Run(context.Background(), "")
	require.Error(t, err)
	assert.Zero(t, mail.sends)
}

func TestWorkflow_Run_ThrottlePause(t *testing.T) {
	const pause = 40 * time.Millisecond
	api := &fakeOrderAPI{
		budget: 10, // below the threshold, every call triggers the pause
		orders: map[string]*order.Resolved{
			"1": testOrder("1", "10", false, false),
			"2": testOrder("2", "20", false, false),
		},
	}
	mail := &fakeMailer{}
	srv := serveReport(t, "rto,1\nrto,2\n")
	defer srv.Close()

	w := New(api, mail, slog.Default())
	w.resolveGuard = throttle.NewCostGuard(throttle.DefaultCostThreshold, pause)
	w.refundGuard = throttle.NewCostGuard(throttle.DefaultCostThreshold, time.Millisecond)

	start := time.Now()
	require.NoError(t, w.Run(context.Background(), srv.URL))
	assert.GreaterOrEqual(t, time.Since(start), 2*pause,
		"low budget must delay each subsequent resolution call")
}
