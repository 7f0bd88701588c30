package refund

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AnitBishwas/swiss-event-handler/internal/model/order"
	"github.com/AnitBishwas/swiss-event-handler/internal/serviceerrs"
)

const summarySubject = "List of orders where refunds are initiated"

const summaryTemplate = `<html>
<body>
  <h2>RTO Auto Refund</h2>
  <p>Total refund initiated: <b>{{.TotalRefund}}</b> across {{len .Orders}} order(s).</p>
  <table border="1" cellpadding="4" cellspacing="0">
    <tr><th>Order</th><th>Customer</th><th>Phone</th><th>Amount</th></tr>
    {{- range .Orders}}
    <tr>
      <td>{{.Name}}</td>
      <td>{{.Customer.Name}}</td>
      <td>{{.Customer.Phone}}</td>
      <td>{{.RefundAmount}}</td>
    </tr>
    {{- end}}
  </table>
</body>
</html>`

var summaryTmpl = template.Must(template.New("refund-summary").Parse(summaryTemplate))

// renderSummary builds the notification body: one row per refunded
// order plus the total, which is the sum of exactly the orders that
// made it through submission.
func renderSummary(orders []*order.Resolved) (string, error) {
	total := decimal.Zero
	for _, ord := range orders {
		total = total.Add(ord.RefundAmount)
	}

	var sb strings.Builder
	err := summaryTmpl.Execute(&sb, struct {
		Orders      []*order.Resolved
		TotalRefund string
	}{
		Orders:      orders,
		TotalRefund: total.StringFixed(2),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render refund summary: %w", err)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", serviceerrs.ErrEmptyContent
	}
	return sb.String(), nil
}
