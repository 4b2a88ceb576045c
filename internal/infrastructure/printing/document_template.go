package printing

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/backoffice/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// documentTitles maps document types to their printed Japanese titles
var documentTitles = map[trade.DocumentType]string{
	trade.DocumentTypeQuote:   "見積書",
	trade.DocumentTypeInvoice: "請求書",
	trade.DocumentTypeReceipt: "領収書",
}

const documentTemplateHTML = `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="UTF-8">
<title>{{.Title}} {{.Document.DocumentNumber}}</title>
<style>
  body { font-family: "Hiragino Kaku Gothic ProN", "Noto Sans JP", sans-serif; font-size: 11pt; color: #222; }
  h1 { text-align: center; font-size: 18pt; letter-spacing: 1.5em; margin-bottom: 24px; }
  .meta { text-align: right; font-size: 9pt; margin-bottom: 16px; }
  .customer { font-size: 13pt; border-bottom: 2px solid #222; display: inline-block; padding: 0 24px 4px 4px; margin-bottom: 18px; }
  .total-box { border: 2px solid #222; display: inline-block; padding: 6px 32px; font-size: 13pt; margin-bottom: 18px; }
  table.items { width: 100%; border-collapse: collapse; margin-bottom: 12px; }
  table.items th, table.items td { border: 1px solid #555; padding: 5px 8px; }
  table.items th { background: #eee; font-weight: normal; }
  td.num { text-align: right; }
  .summary { width: 40%; margin-left: auto; border-collapse: collapse; }
  .summary td { border: 1px solid #555; padding: 5px 8px; }
  .notes { margin-top: 20px; font-size: 9pt; white-space: pre-wrap; }
  .cancelled { color: #b00; font-size: 14pt; text-align: center; margin-bottom: 12px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Cancelled}}<div class="cancelled">（取消済）{{if .Document.CancelReason}} {{.Document.CancelReason}}{{end}}</div>{{end}}
<div class="meta">
  No. {{.Document.DocumentNumber}}<br>
  発行日: {{formatDate .Document.IssueDate}}{{if .Document.DueDate}}<br>
  支払期限: {{formatDate .Document.DueDate}}{{end}}
</div>
<div class="customer">{{.Document.CustomerName}} 御中</div><br>
<div class="total-box">合計金額 {{yen .Document.TotalAmount}}（税込）</div>
<table class="items">
  <tr><th>品名</th><th>数量</th><th>単価</th><th>金額</th></tr>
  {{range .Document.Items}}
  <tr>
    <td>{{.Name}}</td>
    <td class="num">{{.Quantity}}</td>
    <td class="num">{{yen .UnitPrice}}</td>
    <td class="num">{{yen .Amount}}</td>
  </tr>
  {{end}}
</table>
<table class="summary">
  <tr><td>小計</td><td class="num">{{yen .Document.SubtotalAmount}}</td></tr>
  <tr><td>消費税（{{.Document.TaxRate}}%）</td><td class="num">{{yen .Document.TaxAmount}}</td></tr>
  <tr><td>合計</td><td class="num">{{yen .Document.TotalAmount}}</td></tr>
</table>
{{if .Document.Notes}}<div class="notes">{{.Document.Notes}}</div>{{end}}
</body>
</html>`

var documentTemplate = template.Must(template.New("document").Funcs(template.FuncMap{
	"yen":        formatYen,
	"formatDate": formatDate,
}).Parse(documentTemplateHTML))

type documentTemplateData struct {
	Title     string
	Cancelled bool
	Document  *trade.Document
}

// RenderDocumentHTML produces the printable HTML for a sales document
func RenderDocumentHTML(doc *trade.Document) (string, error) {
	title, ok := documentTitles[doc.Type]
	if !ok {
		title = "取引書類"
	}

	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, documentTemplateData{
		Title:     title,
		Cancelled: doc.Status == trade.DocumentStatusCancelled,
		Document:  doc,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatYen renders a whole-yen amount as ¥1,234,567
func formatYen(amount decimal.Decimal) string {
	s := amount.StringFixed(0)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if negative {
		return "-¥" + b.String()
	}
	return "¥" + b.String()
}

// formatDate renders a date as 2006年01月02日.
// Accepts either time.Time or *time.Time for template convenience.
func formatDate(v interface{}) string {
	switch d := v.(type) {
	case time.Time:
		return d.Format("2006年01月02日")
	case *time.Time:
		if d == nil {
			return ""
		}
		return d.Format("2006年01月02日")
	}
	return ""
}
