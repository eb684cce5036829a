package email

import (
	"bytes"
	"fmt"
	"html/template"
)

var welcomeHTML = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Welcome{{if .Name}}, {{.Name}}{{end}}!</h2>
  <p>Your account on {{.Site}} was just created with your {{.ProviderLabel}} account.</p>
  <p>You can sign in any time with the same button you just used.</p>
  <p style="color:#888;font-size:12px">If this wasn't you, reply to this email.</p>
</body>
</html>`))

type welcomeData struct {
	Name          string
	Site          string
	ProviderLabel string
}

// providerLabel mapea el identificador al nombre visible.
func providerLabel(provider string) string {
	switch provider {
	case "google":
		return "Google"
	case "facebook":
		return "Facebook"
	default:
		return provider
	}
}

// SendWelcome envía el correo de bienvenida a una cuenta recién
// creada por social login.
func SendWelcome(s Sender, to, name, site, provider string) error {
	data := welcomeData{Name: name, Site: site, ProviderLabel: providerLabel(provider)}

	var html bytes.Buffer
	if err := welcomeHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("email: rendering welcome: %w", err)
	}

	text := fmt.Sprintf("Welcome%s!\n\nYour account on %s was just created with your %s account.\nYou can sign in any time with the same button you just used.\n",
		nameSuffix(name), data.Site, data.ProviderLabel)

	subject := fmt.Sprintf("Welcome to %s", site)
	return s.Send(to, subject, html.String(), text)
}

func nameSuffix(name string) string {
	if name == "" {
		return ""
	}
	return ", " + name
}
