package xalert

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// Attachment 渲染产物，随告警一同投递或落盘归档。
type Attachment struct {
	// Name 附件文件名。
	Name string `json:"name"`

	// ContentType MIME 类型。
	ContentType string `json:"content_type"`

	// Data 附件内容。
	Data []byte `json:"data"`
}

// Renderer 将接管报告渲染为附件。
type Renderer interface {
	Render(report *Report) (Attachment, error)
}

// HTMLRenderer 将报告渲染为独立的 HTML 页面，适合邮件正文或浏览器打开。
type HTMLRenderer struct{}

var _ Renderer = (*HTMLRenderer)(nil)

// NewHTMLRenderer 创建 HTML 渲染器。
func NewHTMLRenderer() *HTMLRenderer { return &HTMLRenderer{} }

var htmlTemplate = template.Must(template.New("takeover").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Subject}}</title>
</head>
<body>
<h1>Write lock takeover</h1>
<table border="1" cellpadding="4">
<tr><td>Incident</td><td>{{.Report.IncidentID}}</td></tr>
<tr><td>Key</td><td>{{.Report.KeyLabel}}</td></tr>
<tr><td>Previous holder</td><td>goroutine {{.Report.BlockedBy}}</td></tr>
<tr><td>Held for</td><td>{{.HeldFor}}</td></tr>
<tr><td>Requester</td><td>goroutine {{.Report.Requester}}</td></tr>
<tr><td>Max wait</td><td>{{.Report.MaxWait}}</td></tr>
<tr><td>Cancellation delivered</td><td>{{.Report.InterruptDelivered}}</td></tr>
{{if .Report.InterruptError}}<tr><td>Cancellation error</td><td>{{.Report.InterruptError}}</td></tr>{{end}}
<tr><td>Occurred at</td><td>{{.OccurredAt}}</td></tr>
</table>
{{if .Report.HolderStack}}
<h2>Holder stack</h2>
<pre>{{.Report.HolderStack}}</pre>
{{else if .Report.CaptureError}}
<p>Holder stack unavailable: {{.Report.CaptureError}}</p>
{{end}}
</body>
</html>
`))

// Render 实现 Renderer 接口。
func (h *HTMLRenderer) Render(report *Report) (Attachment, error) {
	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, struct {
		Report     *Report
		Subject    string
		HeldFor    string
		OccurredAt string
	}{
		Report:     report,
		Subject:    report.Subject(),
		HeldFor:    report.HeldFor.Round(time.Millisecond).String(),
		OccurredAt: report.OccurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return Attachment{}, fmt.Errorf("xalert: render html: %w", err)
	}

	return Attachment{
		Name:        fmt.Sprintf("takeover-%s.html", report.IncidentID),
		ContentType: "text/html; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}
