// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// WelcomeSubject is the subject passed to the welcome template.
const WelcomeSubject = "Thank you for registering"

// InvitationData holds data for the supervisor invitation email.
type InvitationData struct {
	SiteName    string
	InviteeName string
	InviterName string
	TeamName    string
}

// BuildInvitationEmail renders the invitation with both HTML and text
// bodies. The caller sets the recipient.
func BuildInvitationEmail(data InvitationData) Message {
	return Message{
		Subject:  fmt.Sprintf("You have joined %s on %s", data.TeamName, data.SiteName),
		TextBody: buildInvitationText(data),
		HTMLBody: buildInvitationHTML(data),
	}
}

func buildInvitationText(data InvitationData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Hi %s,\n\n", data.InviteeName)
	fmt.Fprintf(&buf, "%s has added you as a supervisor of the team %s on %s.\n\n", data.InviterName, data.TeamName, data.SiteName)
	buf.WriteString("Sign in to the app to see your team.\n\n")
	buf.WriteString("If you think this was a mistake, contact your country manager.\n")
	return buf.String()
}

var invitationHTML = template.Must(template.New("invitation").Parse(invitationHTMLTemplate))

func buildInvitationHTML(data InvitationData) string {
	var buf bytes.Buffer
	_ = invitationHTML.Execute(&buf, data)
	return buf.String()
}

const invitationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Team invitation</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #0f766e;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Hi {{.InviteeName}},</p>
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">
                {{.InviterName}} has added you as a supervisor of the team <strong>{{.TeamName}}</strong>.
              </p>
              <p style="margin: 0; font-size: 14px; color: #6b7280;">Sign in to the app to see your team.</p>
            </td>
          </tr>
          <tr>
            <td style="padding: 16px 32px; border-top: 1px solid #e5e7eb; text-align: center;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af;">If you think this was a mistake, contact your country manager.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
