package handlers

import (
	"html/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dvloznov/securepay/internal/domain"
)

var printer = message.NewPrinter(language.English)

// formatMoney renders v as dollars with thousands separators.
func formatMoney(v float64) string {
	if v < 0 {
		return printer.Sprintf("-$%.2f", -v)
	}
	return printer.Sprintf("$%.2f", v)
}

// formatRisk renders a probability as a percentage.
func formatRisk(p float64) string {
	return printer.Sprintf("%.1f%%", p*100)
}

// pageData drives the scan page template.
type pageData struct {
	Values  map[string]string
	Errors  map[string]string
	Types   []domain.TransactionType
	MinStep int
	MaxStep int
	Result  *resultView
	Failed  bool
}

type resultView struct {
	ScanID    string
	Fraud     bool
	Risk      string
	Remaining string
}

func newPageData() pageData {
	return pageData{
		Values: map[string]string{
			FieldType: string(domain.TypePayment),
			FieldStep: "1",
		},
		Errors:  map[string]string{},
		Types:   domain.TransactionTypes,
		MinStep: domain.MinStep,
		MaxStep: domain.MaxStep,
	}
}

var pageTemplate = template.Must(template.New("scan").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>SecurePay | Fraud Detection</title>
<style>
body { font-family: system-ui, sans-serif; background: #f5f7f9; margin: 0; padding: 2rem; color: #1f2933; }
main { max-width: 960px; margin: 0 auto; }
.columns { display: flex; gap: 2rem; flex-wrap: wrap; }
.columns section { flex: 1; min-width: 280px; }
label { display: block; margin-top: 1rem; font-weight: 600; }
input, select { width: 100%; padding: .5rem; margin-top: .25rem; box-sizing: border-box; }
.error { color: #b91c1c; font-size: .9rem; }
.caption { color: #52606d; font-size: .9rem; }
button { width: 100%; margin-top: 1.5rem; border: 0; border-radius: 10px; height: 3em; background: #007BFF; color: #fff; font-weight: bold; }
.card { padding: 20px; border-radius: 15px; text-align: center; margin-top: 20px; }
.fraud { background: #fde8e8; border: 1px solid #f98080; }
.secure { background: #def7ec; border: 1px solid #84e1bc; }
.failed { background: #fdf6b2; border: 1px solid #e3a008; }
footer { margin-top: 2rem; color: #52606d; font-size: .8rem; }
</style>
</head>
<body>
<main>
<h1>Transaction Security Scanner</h1>
<p>Complete the details below to verify the safety of your transfer.</p>

{{with .Errors.form}}<p class="error">Form {{.}}</p>{{end}}

<form method="post" action="/scan">
<div class="columns">
<section>
<h2>Sender Details</h2>
<label for="amount">Transfer Amount ($)</label>
<input id="amount" name="amount" type="number" min="0" step="0.01" value="{{index .Values "amount"}}">
{{with index .Errors "amount"}}<p class="error">Amount {{.}}</p>{{end}}
<label for="old_balance_orig">Current Account Balance ($)</label>
<input id="old_balance_orig" name="old_balance_orig" type="number" min="0" step="0.01" value="{{index .Values "old_balance_orig"}}">
{{with index .Errors "old_balance_orig"}}<p class="error">Balance {{.}}</p>{{end}}
</section>
<section>
<h2>Transaction Metadata</h2>
<label for="type">Payment Method</label>
<select id="type" name="type">
{{- $selected := index .Values "type"}}
{{- range .Types}}
<option value="{{.}}"{{if eq (print .) $selected}} selected{{end}}>{{.}}</option>
{{- end}}
</select>
{{with index .Errors "type"}}<p class="error">Payment method {{.}}</p>{{end}}
<label for="step">Transaction Hour ({{.MinStep}}-{{.MaxStep}})</label>
<input id="step" name="step" type="number" min="{{.MinStep}}" max="{{.MaxStep}}" value="{{index .Values "step"}}">
{{with index .Errors "step"}}<p class="error">Hour {{.}}</p>{{end}}
</section>
</div>

<details class="receiver"{{if index .Errors "old_balance_dest"}} open{{end}}>
<summary>Receiver Security Details (Optional)</summary>
<p class="caption">Information about the recipient bank account.</p>
<label for="old_balance_dest">Recipient Initial Balance</label>
<input id="old_balance_dest" name="old_balance_dest" type="number" min="0" step="0.01" value="{{index .Values "old_balance_dest"}}">
{{with index .Errors "old_balance_dest"}}<p class="error">Recipient balance {{.}}</p>{{end}}
</details>

<button type="submit">Verify Transaction</button>
</form>

{{with .Result}}
<p class="caption">Estimated Remaining Balance: {{.Remaining}}</p>
{{if .Fraud}}
<div class="card fraud">
<h2>High Risk Detected</h2>
<p>This transaction matches patterns associated with fraudulent activity. We recommend manual review.</p>
{{with .Risk}}<p>Risk score: {{.}}</p>{{end}}
</div>
{{else}}
<div class="card secure">
<h2>Secure Transaction</h2>
<p>The AI has verified this transaction as low-risk.</p>
{{with .Risk}}<p>Risk score: {{.}}</p>{{end}}
</div>
{{end}}
<p class="caption">Scan {{.ScanID}}</p>
{{end}}

{{if .Failed}}
<div class="card failed">
<h2>Error processing prediction</h2>
<p>The transaction could not be processed. Please try again later.</p>
</div>
{{end}}

<footer>SecurePay AI v1.0 | Powered by Logistic Regression &amp; PaySim Dataset</footer>
</main>
</body>
</html>
`))
