package billing

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"dhaba-pos/internal/models"

	"github.com/shopspring/decimal"
)

const receiptWidth = 42

var receiptTmpl = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money":  money,
	"center": center,
	"line":   func() string { return strings.Repeat("-", receiptWidth) },
	"row":    row,
	"title":  capitalize,
}).Parse(`{{center .Company.Name}}
{{- if .Company.Address}}
{{center .Company.Address}}{{end}}
{{- if .Company.Phone}}
{{center (printf "Ph: %s" .Company.Phone)}}{{end}}
{{- if .Company.Email}}
{{center .Company.Email}}{{end}}
{{line}}
Table: {{.Bill.TableID}}    Date: {{.Printed}}
Payment: {{title .Bill.PaymentMethod}}
{{line}}
{{- range .Bill.LineItems}}
{{row (printf "%s x%d @ %s" .Product.Name .Quantity (money .Product.Price)) (money .LineTotal)}}
{{- end}}
{{line}}
{{row "Subtotal:" (money .Bill.Subtotal)}}
{{- if .Bill.ShowDiscount}}
{{row .DiscountLabel (printf "-%s" (money .Bill.DiscountAmount))}}
{{row "After discount:" (money .Bill.AfterDiscount)}}
{{- end}}
{{row (printf "GST (%s%%):" .Bill.TaxRate.String) (money .Bill.TaxAmount)}}
{{line}}
{{row "Grand Total:" (money .Bill.GrandTotal)}}
{{row "Total Items:" (printf "%d" .Bill.TotalQuantity)}}
{{line}}
{{center "Thank you! Visit again"}}
`))

type receiptData struct {
	Bill          Bill
	Company       models.CompanyConfig
	Printed       string
	DiscountLabel string
}

// RenderReceipt writes a plain-text receipt for b.
func RenderReceipt(w io.Writer, b Bill, company models.CompanyConfig, printed time.Time) error {
	data := receiptData{
		Bill:          b,
		Company:       company,
		Printed:       printed.Format("02 Jan 2006 15:04"),
		DiscountLabel: discountLabel(b.Discount),
	}
	if err := receiptTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render receipt: %w", err)
	}
	return nil
}

func discountLabel(d models.Discount) string {
	if d.Type == models.DiscountFixed {
		return fmt.Sprintf("Discount (₹%s):", d.Value.String())
	}
	return fmt.Sprintf("Discount (%s%%):", d.Value.String())
}

func money(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func center(s string) string {
	n := len([]rune(s))
	if n >= receiptWidth {
		return s
	}
	return strings.Repeat(" ", (receiptWidth-n)/2) + s
}

func row(label, value string) string {
	pad := receiptWidth - len([]rune(label)) - len([]rune(value))
	if pad < 1 {
		pad = 1
	}
	return label + strings.Repeat(" ", pad) + value
}
