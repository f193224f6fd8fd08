package mail

import (
	"bytes"
	"html/template"
)

// VerificationSubject is the subject line of the code email.
const VerificationSubject = "Verification Email"

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<title>OTP Verification Email</title>
</head>
<body style="background-color:#ffffff;font-family:Arial,sans-serif;font-size:16px;line-height:1.4;color:#333333;margin:0;padding:0;">
	<div style="max-width:600px;margin:0 auto;padding:20px;text-align:center;">
		<div style="font-size:18px;font-weight:bold;margin-bottom:20px;">{{.Product}} verification</div>
		<div style="margin-bottom:20px;">
			<p>Dear User,</p>
			<p>Use the following one-time code to sign in. It is valid for {{.Minutes}} minutes.</p>
			<h2 style="font-weight:bold;letter-spacing:4px;">{{.Code}}</h2>
			<p>If you did not request this code, you can ignore this email.</p>
		</div>
	</div>
</body>
</html>
`))

// VerificationEmail renders the HTML body carrying code.
func VerificationEmail(product, code string, minutes int) (string, error) {
	var buf bytes.Buffer
	err := verificationTmpl.Execute(&buf, struct {
		Product string
		Code    string
		Minutes int
	}{product, code, minutes})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
