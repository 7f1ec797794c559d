package mail

import (
	"strings"
	"text/template"

	"github.com/authd-dev/authd/internal/logger"
)

// Templated notifications sent by the auth flows. Each event is a subject
// plus a plain-text body; the body templates receive the token to embed.

type emailTemplate struct {
	subject string
	body    *template.Template
}

var (
	activationTemplate = emailTemplate{
		subject: "Activate your account",
		body: template.Must(template.New("activation").Parse(`Hello,

Thanks for registering. Use the token below to activate your account:

{{.Token}}

The token is valid for a limited time. If you did not register, please ignore this email.
`)),
	}

	passwordResetTemplate = emailTemplate{
		subject: "Reset your password",
		body: template.Must(template.New("password-reset").Parse(`Hello,

A password reset was requested for your account. Use the token below to choose a new password:

{{.Token}}

If you did not request this, please ignore this email; your password is unchanged.
`)),
	}
)

type tokenVars struct {
	Token string
}

// SendActivation emails a freshly signed activation token to a new account.
func (e *Sender) SendActivation(recipientEmail, token string) error {
	return e.sendTemplated(recipientEmail, activationTemplate, tokenVars{Token: token})
}

// SendPasswordReset emails a reset token to an existing account.
func (e *Sender) SendPasswordReset(recipientEmail, token string) error {
	return e.sendTemplated(recipientEmail, passwordResetTemplate, tokenVars{Token: token})
}

func (e *Sender) sendTemplated(recipientEmail string, tmpl emailTemplate, vars tokenVars) error {
	var body strings.Builder
	if err := tmpl.body.Execute(&body, vars); err != nil {
		logger.Log.Error("failed to render email template", "subject", tmpl.subject, "error", err)
		return err
	}
	return e.Send(recipientEmail, tmpl.subject, body.String())
}
