package i18n

import (
	"bytes"
	"fmt"
	"text/template"

	"golang.org/x/text/language"
)

const (
	KindConfirmation = "confirmation"
	KindReminder     = "reminder"
	KindCancellation = "cancellation"
)

type Message struct {
	Subject string
	Body    string
}

// supported order matters: index 0 is the fallback for unknown locales.
var supported = []language.Tag{
	language.English,
	language.German,
	language.Hungarian,
}

var matcher = language.NewMatcher(supported)

type entry struct {
	subject string
	body    string
}

var catalog = map[language.Tag]map[string]entry{
	language.English: {
		KindConfirmation: {
			subject: "Your appointment is confirmed",
			body:    "Hi {{.customer_name}}, your tire service appointment at {{.branch_name}} on {{.start_time}} is confirmed.{{if .vehicle_plate}} Vehicle: {{.vehicle_plate}}.{{end}}",
		},
		KindReminder: {
			subject: "Appointment reminder",
			body:    "Hi {{.customer_name}}, this is a reminder of your tire service appointment at {{.branch_name}} on {{.start_time}}.{{if .vehicle_plate}} Vehicle: {{.vehicle_plate}}.{{end}}",
		},
		KindCancellation: {
			subject: "Your appointment was cancelled",
			body:    "Hi {{.customer_name}}, your appointment at {{.branch_name}} on {{.start_time}} has been cancelled.",
		},
	},
	language.German: {
		KindConfirmation: {
			subject: "Ihr Termin ist bestätigt",
			body:    "Hallo {{.customer_name}}, Ihr Reifenservice-Termin bei {{.branch_name}} am {{.start_time}} ist bestätigt.{{if .vehicle_plate}} Fahrzeug: {{.vehicle_plate}}.{{end}}",
		},
		KindReminder: {
			subject: "Terminerinnerung",
			body:    "Hallo {{.customer_name}}, dies ist eine Erinnerung an Ihren Reifenservice-Termin bei {{.branch_name}} am {{.start_time}}.{{if .vehicle_plate}} Fahrzeug: {{.vehicle_plate}}.{{end}}",
		},
		KindCancellation: {
			subject: "Ihr Termin wurde storniert",
			body:    "Hallo {{.customer_name}}, Ihr Termin bei {{.branch_name}} am {{.start_time}} wurde storniert.",
		},
	},
	language.Hungarian: {
		KindConfirmation: {
			subject: "Időpontja megerősítve",
			body:    "Kedves {{.customer_name}}, az Ön gumiszerviz időpontja ({{.branch_name}}, {{.start_time}}) megerősítve.{{if .vehicle_plate}} Jármű: {{.vehicle_plate}}.{{end}}",
		},
		KindReminder: {
			subject: "Időpont emlékeztető",
			body:    "Kedves {{.customer_name}}, emlékeztetjük gumiszerviz időpontjára: {{.branch_name}}, {{.start_time}}.{{if .vehicle_plate}} Jármű: {{.vehicle_plate}}.{{end}}",
		},
		KindCancellation: {
			subject: "Időpontja lemondva",
			body:    "Kedves {{.customer_name}}, az Ön időpontja ({{.branch_name}}, {{.start_time}}) lemondásra került.",
		},
	},
}

// Render picks the best supported language for locale (BCP 47, e.g. "de-AT")
// and fills in the template for kind. Unknown locales fall back to English.
func Render(locale string, kind string, data map[string]any) (Message, error) {
	_, idx := language.MatchStrings(matcher, locale)
	entries := catalog[supported[idx]]
	e, ok := entries[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown message kind %q", kind)
	}

	body, err := renderTemplate(kind+"-body", e.body, data)
	if err != nil {
		return Message{}, err
	}
	return Message{Subject: e.subject, Body: body}, nil
}

func renderTemplate(name string, text string, data map[string]any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
