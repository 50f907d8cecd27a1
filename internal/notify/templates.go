package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"susu-app-go/internal/domain/notification"
)

type messageTemplate struct {
	subject *template.Template
	text    *template.Template
}

var templateSources = map[notification.Template][2]string{
	notification.TemplateWelcome: {
		"Welcome to SnappX",
		"Hi {{.Name}},\n\nYour phone number is verified and your SnappX account is ready. Create a savings group or ask to join one to get started.",
	},
	notification.TemplateJoinRequested: {
		"New request to join {{.group_name}}",
		"Hi {{.Name}},\n\nSomeone has asked to join {{.group_name}}. Open the app to approve or reject the request.",
	},
	notification.TemplateJoinApproved: {
		"You have joined {{.group_name}}",
		"Hi {{.Name}},\n\nYour request to join {{.group_name}} was approved. Contributions of GHS {{.contribution_amount}} are due every {{.payout_interval_days}} day(s) once the group is full.",
	},
	notification.TemplateJoinRejected: {
		"Your request to join {{.group_name}}",
		"Hi {{.Name}},\n\nYour request to join {{.group_name}} was not approved. You can browse other groups in the app.",
	},
	notification.TemplateGroupApproved: {
		"{{.group_name}} is now live",
		"Hi {{.Name}},\n\nYour group {{.group_name}} has been approved and is open for members.",
	},
	notification.TemplateGroupStarted: {
		"{{.group_name}} has started",
		"Hi {{.Name}},\n\n{{.group_name}} is full and the rotation starts on {{.start_date}}. Each cycle pays out GHS {{.total_pot}}.",
	},
	notification.TemplateCycleIncomplete: {
		"Cycle {{.cycle}} of {{.group_name}} is incomplete",
		"Hi {{.Name}},\n\nOnly {{.verified}} of {{.expected}} contributions for cycle {{.cycle}} of {{.group_name}} are verified. The payout is on hold until every contribution is in.",
	},
	notification.TemplatePayoutDue: {
		"Payout due for {{.group_name}}",
		"Hi {{.Name}},\n\nCycle {{.cycle}} of {{.group_name}} is complete. Position {{.position}} is due GHS {{.amount}}.",
	},
	notification.TemplatePayoutIssued: {
		"Your payout from {{.group_name}}",
		"Hi {{.Name}},\n\nIt is your turn. Cycle {{.cycle}} of {{.group_name}} pays you GHS {{.amount}}.",
	},
}

var htmlLayout = htmltemplate.Must(htmltemplate.New("layout").Parse(
	`<!DOCTYPE html><html><head><meta charset="UTF-8"><title>{{.Subject}}</title></head>` +
		`<body style="font-family:sans-serif;line-height:1.6;color:#333;max-width:600px;margin:0 auto;padding:20px">` +
		`{{range .Paragraphs}}<p>{{.}}</p>{{end}}` +
		`<p style="color:#6b7280;font-size:13px">SnappX</p></body></html>`))

type Renderer struct {
	templates map[notification.Template]messageTemplate
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[notification.Template]messageTemplate, len(templateSources))}
	for name, src := range templateSources {
		subject, err := template.New(string(name) + ".subject").Option("missingkey=zero").Parse(src[0])
		if err != nil {
			return nil, fmt.Errorf("parse %s subject: %w", name, err)
		}
		text, err := template.New(string(name) + ".text").Option("missingkey=zero").Parse(src[1])
		if err != nil {
			return nil, fmt.Errorf("parse %s text: %w", name, err)
		}
		r.templates[name] = messageTemplate{subject: subject, text: text}
	}
	return r, nil
}

// Render fills the named template with the message data plus the
// recipient's name under "Name".
func (r *Renderer) Render(name notification.Template, recipient string, data map[string]any) (subject, text, html string, err error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown template %q", name)
	}

	values := make(map[string]any, len(data)+1)
	for k, v := range data {
		values[k] = v
	}
	values["Name"] = recipient

	var buf bytes.Buffer
	if err := tmpl.subject.Execute(&buf, values); err != nil {
		return "", "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	subject = buf.String()

	buf.Reset()
	if err := tmpl.text.Execute(&buf, values); err != nil {
		return "", "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	text = buf.String()

	buf.Reset()
	if err := htmlLayout.Execute(&buf, map[string]any{
		"Subject":    subject,
		"Paragraphs": strings.Split(text, "\n\n"),
	}); err != nil {
		return "", "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	return subject, text, buf.String(), nil
}
