package dto

// ReportRow is one line of a rendered report.
type ReportRow struct {
	Date   string `json:"date" example:"2024-01-15"`
	Time   string `json:"time" example:"09:30:00"`
	Check  string `json:"check" example:"17"`
	Label  string `json:"label" example:"Bread"`
	Amount string `json:"amount" example:"10.50"`
	Kind   string `json:"kind" example:"Sale"`
	Tag    string `json:"tag" example:"item"` // item | day_summary | period_summary | blank
}

// ReportResponse is the JSON rendering of one run.
type ReportResponse struct {
	RunID              string      `json:"run_id" example:"7d7d3f0e-0c1d-4a8e-9a59-6b0f3f7f1c11"`
	Archive            string      `json:"archive" example:"2024-01.zip"`
	Status             string      `json:"status" example:"ok"` // ok | empty
	Files              int         `json:"files" example:"3"`
	Transactions       int         `json:"transactions" example:"1520"`
	MalformedFragments int         `json:"malformed_fragments" example:"0"`
	Rows               []ReportRow `json:"rows"`
}

// GroupSummary is one tax group of a stored period.
type GroupSummary struct {
	Label    string `json:"label" example:"Б"`
	Percent  string `json:"percent" example:"7"`
	Turnover string `json:"turnover" example:"10.50"`
	VAT      string `json:"vat" example:"0.69"`
}

// SummaryResponse is the body of GET /api/v1/summary.
type SummaryResponse struct {
	From      string         `json:"from,omitempty" example:"2024-01-01"`
	To        string         `json:"to,omitempty" example:"2024-01-31"`
	Sales     string         `json:"total_sales" example:"10.50"`
	Returns   string         `json:"total_returns" example:"0.00"`
	Balance   string         `json:"net_balance" example:"10.50"`
	TaxGroups []GroupSummary `json:"tax_groups"`
}
