// internal/notify/report.go
package notify

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"bgverify-jobs/internal/tat"
)

const reportDateLayout = "02-01-2006"

// reportTemplate renders the flattened delay hierarchy as the tabular
// HTML body mailed to the admin roster.
const reportTemplate = `<html>
<body style="font-family: Arial, sans-serif; font-size: 13px; color: #333;">
<p>Dear Admin,</p>
<p>The following applications have exceeded their contractual turnaround time as of {{.GeneratedAt}}.</p>
<table border="1" cellpadding="6" cellspacing="0" style="border-collapse: collapse;">
  <thead>
    <tr style="background-color: #f2f2f2;">
      <th>#</th>
      <th>Application ID</th>
      <th>Created</th>
      <th>Application Name</th>
      <th>Customer</th>
      <th>Branch</th>
      <th>Days Out of TAT</th>
    </tr>
  </thead>
  <tbody>
  {{range .Rows}}
    <tr>
      <td>{{.Serial}}</td>
      <td>{{.ApplicationID}}</td>
      <td>{{.Created}}</td>
      <td>{{.ApplicationName}}</td>
      <td>{{.CustomerName}}</td>
      <td>{{.BranchName}}</td>
      <td align="center">{{.DaysOutOfTAT}}</td>
    </tr>
  {{end}}
  </tbody>
</table>
<p>Total delayed applications: {{.Total}}</p>
<p>This is an automated notification.</p>
</body>
</html>`

var reportTmpl = template.Must(template.New("tat-delay-report").Parse(reportTemplate))

type reportRow struct {
	Serial          int
	ApplicationID   string
	Created         string
	ApplicationName string
	CustomerName    string
	BranchName      string
	DaysOutOfTAT    int
}

type reportData struct {
	GeneratedAt string
	Rows        []reportRow
	Total       int
}

// RenderReport flattens the hierarchy into serial-numbered rows and
// renders the HTML report body.
func RenderReport(h *tat.Hierarchy, generatedAt time.Time) (string, error) {
	flat := h.Flatten()

	data := reportData{
		GeneratedAt: generatedAt.Format(reportDateLayout),
		Rows:        make([]reportRow, 0, len(flat)),
		Total:       len(flat),
	}
	for _, r := range flat {
		data.Rows = append(data.Rows, reportRow{
			Serial:          r.Serial,
			ApplicationID:   r.ApplicationID,
			Created:         r.CreatedAt.Format(reportDateLayout),
			ApplicationName: r.ApplicationName,
			CustomerName:    r.CustomerName,
			BranchName:      r.BranchName,
			DaysOutOfTAT:    r.DaysOutOfTAT,
		})
	}

	var out strings.Builder
	if err := reportTmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render delay report: %w", err)
	}

	return out.String(), nil
}

// RenderSMSSummary builds the short escalation text for critical delays.
func RenderSMSSummary(h *tat.Hierarchy, criticalDays int) string {
	_, _, applications := h.Counts()
	return fmt.Sprintf(
		"TAT alert: %d application(s) out of TAT, worst %d business days (threshold %d). Check your inbox for the report.",
		applications, h.MaxDaysOutOfTAT(), criticalDays,
	)
}
