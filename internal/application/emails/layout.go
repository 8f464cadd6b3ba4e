package emails

import (
	"bytes"
	"html/template"
	"time"
)

// notice is the content of one transactional email. Every field is escaped on render.
type notice struct {
	Heading     string
	Lines       []string
	Facts       []fact
	Quote       string
	ActionLabel string
	ActionURL   string
	Year        int
}

type fact struct {
	Label string
	Value string
}

var layoutTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>GiveHub</title>
</head>
<body style="margin:0;padding:0;background:#F3F4F6;font-family:-apple-system,'Segoe UI',Roboto,Helvetica,Arial,sans-serif;color:#1F2937;">
<table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background:#F3F4F6;">
<tr><td align="center" style="padding:40px 0;">
<table role="presentation" width="600" cellspacing="0" cellpadding="0" style="width:600px;max-width:100%;background:#FFFFFF;border-radius:8px;">
<tr><td style="padding:32px 48px 8px 48px;font-size:20px;font-weight:700;color:#0F766E;">GiveHub</td></tr>
<tr><td style="padding:8px 48px 32px 48px;font-size:16px;line-height:1.6;">
<h1 style="font-size:22px;margin:0 0 16px 0;color:#111827;">{{.Heading}}</h1>
{{range .Lines}}<p style="margin:0 0 16px 0;">{{.}}</p>
{{end}}{{if .Facts}}<table role="presentation" cellspacing="0" cellpadding="0" style="margin:0 0 16px 0;">
{{range .Facts}}<tr><td style="padding:4px 16px 4px 0;color:#6B7280;">{{.Label}}</td><td style="padding:4px 0;font-weight:600;">{{.Value}}</td></tr>
{{end}}</table>
{{end}}{{with .Quote}}<p style="margin:0 0 16px 0;padding:12px;background:#FEF2F2;border-radius:6px;">{{.}}</p>
{{end}}{{if .ActionURL}}<p style="margin:24px 0;"><a href="{{.ActionURL}}" style="display:inline-block;background:#0F766E;color:#FFFFFF;padding:12px 32px;border-radius:6px;font-weight:600;text-decoration:none;">{{.ActionLabel}}</a></p>
{{end}}<p style="margin:0;">The GiveHub Team</p>
</td></tr>
<tr><td style="padding:16px 48px 32px 48px;font-size:13px;color:#6B7280;">&copy; {{.Year}} GiveHub. You receive this email because of activity on your account.</td></tr>
</table>
</td></tr>
</table>
</body>
</html>
`))

func (n notice) render() (string, error) {
	if n.Year == 0 {
		n.Year = time.Now().Year()
	}
	var buf bytes.Buffer
	if err := layoutTmpl.Execute(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
