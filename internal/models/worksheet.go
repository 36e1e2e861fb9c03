package models

import (
	"bytes"
	"encoding/csv"
)

// FunnelHeader is the canonical column row of the funnel metrics worksheet.
var FunnelHeader = []string{"stage", "metric", "goal", "actual", "notes"}

// FunnelStage seeds one row of the worksheet template.
type FunnelStage struct {
	Stage  string
	Metric string
}

// FunnelStages lists the seeded rows, top of funnel first.
func FunnelStages() []FunnelStage {
	return []FunnelStage{
		{Stage: "awareness", Metric: "landing_page_visits"},
		{Stage: "interest", Metric: "optin_rate"},
		{Stage: "leads", Metric: "email_subscribers"},
		{Stage: "nurture", Metric: "email_open_rate"},
		{Stage: "sales", Metric: "checkout_visits"},
		{Stage: "conversion", Metric: "purchases"},
		{Stage: "retention", Metric: "refund_rate"},
	}
}

// WorksheetCSV builds the canonical funnel worksheet content. Used as the
// fallback when a template set ships no worksheet of its own.
func WorksheetCSV() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(FunnelHeader)
	for _, st := range FunnelStages() {
		w.Write([]string{st.Stage, st.Metric, "", "", ""})
	}
	w.Flush()
	return buf.Bytes()
}
