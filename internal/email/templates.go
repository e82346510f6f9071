package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var authorityContactTemplate = template.Must(template.New("authority_contact").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Civic alert {{.AlertID}}</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background-color: #f5f5f5; margin: 0; padding: 24px;">
<table role="presentation" style="max-width: 560px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 24px;">
<tr><td>
<h1 style="margin: 0 0 16px; font-size: 20px; color: #1a1a1a;">Reported {{.IssueType}} at {{.Location}}</h1>
<p style="margin: 0 0 8px; color: #444;"><strong>Alert:</strong> {{.AlertID}}</p>
<p style="margin: 0 0 8px; color: #444;"><strong>Status:</strong> {{.Status}}</p>
<p style="margin: 0 0 8px; color: #444;"><strong>Reported at:</strong> {{.ReportedAt}}</p>
{{if .Description}}<p style="margin: 16px 0; color: #222;">{{.Description}}</p>{{end}}
{{if .Message}}<p style="margin: 16px 0; padding: 12px; background: #f0f4ff; color: #222;">{{.Message}}</p>{{end}}
{{range .Images}}<p style="margin: 4px 0;"><a href="{{.}}">{{.}}</a></p>{{end}}
</td></tr>
</table>
</body>
</html>`))

// AuthorityContactData - данные шаблона письма в городскую службу
type AuthorityContactData struct {
	AlertID     string
	IssueType   string
	Status      string
	Location    string
	Description string
	Message     string
	Images      []string
	ReportedAt  time.Time
}

// RenderAuthorityContactEmail возвращает тему, HTML и текстовую версию письма
func RenderAuthorityContactEmail(data AuthorityContactData) (subject, html, text string, err error) {
	var buf bytes.Buffer
	if err := authorityContactTemplate.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("render authority contact template: %w", err)
	}

	subject = fmt.Sprintf("[Civic alert] %s at %s", data.IssueType, data.Location)
	text = fmt.Sprintf("Reported %s at %s\n\nAlert: %s\nStatus: %s\nReported at: %s\n\n%s\n\n%s",
		data.IssueType, data.Location, data.AlertID, data.Status,
		data.ReportedAt.Format(time.RFC1123), data.Description, data.Message)

	return subject, buf.String(), text, nil
}
