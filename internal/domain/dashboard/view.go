// Package dashboard composes what the employee dashboard shows: the profile
// card, the summary stat, the filter state and the visible order rows.
package dashboard

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"clinic/internal/domain/orderfilter"
	"clinic/internal/domain/session"
	"clinic/internal/platform/clinicapi"
)

const (
	EmptyMessage   = "Tanlangan vaqt oralig'ida buyurtmalar mavjud emas"
	UnnamedService = "Nomsiz xizmat"
	DefaultStatus  = "TUGATILDI"

	pendingStatusClass = "pending"
)

type Stat struct {
	Label  string `json:"label"`
	Period string `json:"period"`
	Value  int    `json:"value"`
}

type FilterState struct {
	Mode  orderfilter.Mode `json:"mode"`
	Date  string           `json:"date"`
	Month string           `json:"month"`
}

type OrderRow struct {
	ID          string          `json:"id"`
	Service     string          `json:"service"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	Status      string          `json:"status"`
	StatusClass string          `json:"statusClass"`
	Price       string          `json:"price"`
	Amount      decimal.Decimal `json:"amount"`
}

type View struct {
	Profile      Profile                   `json:"profile"`
	Stat         Stat                      `json:"stat"`
	Filter       FilterState               `json:"filter"`
	Months       []orderfilter.MonthOption `json:"months"`
	Orders       []OrderRow                `json:"orders"`
	Total        string                    `json:"total"`
	Empty        bool                      `json:"empty"`
	EmptyMessage string                    `json:"emptyMessage,omitempty"`
}

// Build filters the category-scoped orders by sel and lays out the dashboard.
func Build(sess session.Session, orders []clinicapi.Order, sel orderfilter.Selection, loc *time.Location, imageURL func(string) string) View {
	if loc == nil {
		loc = time.UTC
	}
	result := orderfilter.Apply(orders, sel.Filter(), loc)

	view := View{
		Profile: BuildProfile(sess.Profile, imageURL),
		Stat:    Stat{Label: result.Label, Period: result.Period, Value: result.Count},
		Filter: FilterState{
			Mode:  sel.Mode,
			Date:  sel.DateKey(),
			Month: sel.MonthKey(),
		},
		Months: orderfilter.AvailableMonths(orders, loc),
		Orders: make([]OrderRow, 0, len(result.Items)),
	}

	total := decimal.Zero
	for _, o := range result.Items {
		row := NewOrderRow(o, loc)
		total = total.Add(row.Amount)
		view.Orders = append(view.Orders, row)
	}
	view.Total = FormatPrice(total)

	if len(view.Orders) == 0 {
		view.Empty = true
		view.EmptyMessage = EmptyMessage
	}
	return view
}

// NewOrderRow formats one order for display in loc. Only the first service is
// shown; a missing name or status falls back to fixed placeholders.
func NewOrderRow(o clinicapi.Order, loc *time.Location) OrderRow {
	at := o.At().In(loc)
	row := OrderRow{
		ID:          string(o.ID),
		Service:     UnnamedService,
		Date:        at.Format("02.01.2006"),
		Time:        at.Format("15:04"),
		Status:      DefaultStatus,
		StatusClass: pendingStatusClass,
	}
	if status := strings.TrimSpace(string(o.Status)); status != "" {
		row.Status = status
		row.StatusClass = strings.ToLower(status)
	}
	if first, ok := o.FirstService(); ok {
		if first.Name != "" {
			row.Service = string(first.Name)
		}
		row.Amount = first.Price
	}
	row.Price = FormatPrice(row.Amount)
	return row
}
