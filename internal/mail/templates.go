package mail

const emailTemplates = `
{{define "otp"}}
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>{{.AppName}}</h2>
  <p>Your verification code is:</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  <p>The code expires in {{.ExpiresIn}}. If you did not request it, ignore this email.</p>
</body>
</html>
{{end}}

{{define "welcome"}}
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Welcome to {{.AppName}}, {{.Name}}!</h2>
  <p>Your email address has been verified. You can now sign in.</p>
</body>
</html>
{{end}}
`

type otpData struct {
	AppName   string
	Code      string
	ExpiresIn string
}

type welcomeData struct {
	AppName string
	Name    string
}
