package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/shopspring/decimal"
)

// Service composes storefront emails and hands them to a Sender.
type Service struct {
	sender    Sender
	templates *template.Template
}

// NewService creates a new email service.
func NewService(sender Sender) *Service {
	return &Service{
		sender:    sender,
		templates: template.Must(template.New("email").Funcs(templateFuncs).Parse(emailTemplates)),
	}
}

// OrderConfirmationEmail is the data rendered into an order confirmation.
type OrderConfirmationEmail struct {
	To             string
	CustomerName   string
	OrderReference string
	OrderDate      time.Time
	Items          []OrderItem
	Subtotal       decimal.Decimal
	DeliveryPrice  decimal.Decimal
	Total          decimal.Decimal
	PaymentMethod  string
	PaymentStatus  string
	ShippingAddr   Address
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Address represents a delivery address.
type Address struct {
	Name       string
	Line1      string
	City       string
	PostalCode string
}

func (e OrderConfirmationEmail) Subject() string {
	return "Order Confirmation - " + e.OrderReference
}

// NewOrderConfirmation builds the confirmation data for an order.
func NewOrderConfirmation(o *domain.Order) OrderConfirmationEmail {
	items := make([]OrderItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.DiscountedPrice,
			LineTotal: it.LineTotal(),
		}
	}

	return OrderConfirmationEmail{
		To:             o.UserEmail,
		CustomerName:   o.UserName,
		OrderReference: o.OrderReference,
		OrderDate:      o.CreatedAt,
		Items:          items,
		Subtotal:       o.Subtotal,
		DeliveryPrice:  o.DeliveryPrice,
		Total:          o.TotalPrice,
		PaymentMethod:  string(o.PaymentMethod),
		PaymentStatus:  string(o.PaymentStatus),
		ShippingAddr: Address{
			Name:       o.ShippingInfo.FullName,
			Line1:      o.ShippingInfo.AddressLine1,
			City:       o.ShippingInfo.City,
			PostalCode: o.ShippingInfo.PostalCode,
		},
	}
}

// SendOrderConfirmation sends an order confirmation email.
func (s *Service) SendOrderConfirmation(ctx context.Context, data OrderConfirmationEmail) (string, error) {
	htmlBody, textBody, err := s.render("order_confirmation", data)
	if err != nil {
		return "", fmt.Errorf("failed to render order confirmation template: %w", err)
	}

	id, err := s.sender.Send(ctx, &Email{
		To:       []string{data.To},
		Subject:  data.Subject(),
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send order confirmation email: %w", err)
	}

	return id, nil
}

func (s *Service) render(name string, data any) (string, string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	htmlBody := buf.String()
	return htmlBody, generatePlainText(htmlBody), nil
}

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return "₹" + d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("2 Jan 2006") },
}

const emailTemplates = `
{{define "order_confirmation"}}
<div class="email-content">
<h2>Thank you for your order, {{.CustomerName}}!</h2>
<p>Order reference: <strong>{{.OrderReference}}</strong><br>
Placed on {{date .OrderDate}}</p>
<table>
{{range .Items}}<tr><td>{{.Name}} &times; {{.Quantity}}</td><td>{{money .LineTotal}}</td></tr>
{{end}}</table>
<p>Subtotal: {{money .Subtotal}}<br>
Delivery: {{money .DeliveryPrice}}<br>
<strong>Total: {{money .Total}}</strong></p>
<p>Payment: {{.PaymentMethod}} ({{.PaymentStatus}})</p>
<h3>Delivering to</h3>
<p>{{.ShippingAddr.Name}}<br>{{.ShippingAddr.Line1}}<br>{{.ShippingAddr.City}} {{.ShippingAddr.PostalCode}}</p>
</div>
{{end}}
`

// generatePlainText creates a simple plain text version from HTML
func generatePlainText(html string) string {
	text := html

	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "<br/>", "\n")
	text = strings.ReplaceAll(text, "<br />", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = strings.ReplaceAll(text, "</div>", "\n")
	text = strings.ReplaceAll(text, "</tr>", "\n")
	text = strings.ReplaceAll(text, "</td>", " ")
	text = strings.ReplaceAll(text, "</h1>", "\n\n")
	text = strings.ReplaceAll(text, "</h2>", "\n\n")
	text = strings.ReplaceAll(text, "</h3>", "\n\n")

	for strings.Contains(text, "<") && strings.Contains(text, ">") {
		start := strings.Index(text, "<")
		end := strings.Index(text, ">")
		if start >= 0 && end > start {
			text = text[:start] + text[end+1:]
		} else {
			break
		}
	}

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&times;", "x")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	text = strings.ReplaceAll(text, "&#34;", "\"")
	text = strings.ReplaceAll(text, "&#39;", "'")

	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
