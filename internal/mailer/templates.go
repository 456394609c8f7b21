package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var resetPasswordTemplate = template.Must(template.New("reset_password").Parse(`<html>
  <body>
    <h1>Reset password</h1>
    <p>Use the following code to reset your password</p>
    <h2 style="color:red;">{{.Code}}</h2>
    <i>{{.App}}</i>
  </body>
</html>`))

// ResetPasswordMessage builds the email carrying a password reset code
func ResetPasswordMessage(to, code string) (Message, error) {
	var body bytes.Buffer
	data := struct {
		Code string
		App  string
	}{Code: code, App: "lms"}

	if err := resetPasswordTemplate.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("failed to render reset password email: %w", err)
	}

	return Message{
		To:       to,
		Subject:  "Reset Password",
		HTMLBody: body.String(),
	}, nil
}
