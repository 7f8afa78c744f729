package trigger

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// message is the title/body pair for one trigger type.
type message struct {
	title *template.Template
	body  *template.Template
}

// messageData is the data every template is rendered with.
type messageData struct {
	TripName string
	Location string
	Time     string
	Lead     string
}

func newMessage(name, title, body string) message {
	return message{
		title: template.Must(template.New(name + ".title").Parse(title)),
		body:  template.Must(template.New(name + ".body").Parse(body)),
	}
}

var (
	msgDDaySeven = newMessage("dday_seven",
		"🚢 7 days until departure!",
		"Start getting ready for {{.TripName}}. Pack the essentials and check your passport!")
	msgDDayOne = newMessage("dday_one",
		"🚢 You depart tomorrow!",
		"{{.TripName}} departs tomorrow. Time to finish your final preparations!")
	msgEmbarkation = newMessage("embarkation",
		"🚢 Time to head to the terminal!",
		"Boarding is at {{.Time}}. Head to the terminal now and don't forget your passport.")
	msgDisembarkation = newMessage("disembarkation",
		"🏖️ Arriving in {{.Location}} in {{.Lead}}!",
		"We arrive in {{.Location}} at {{.Time}}. Grab your passport and get ready to go ashore!")
	msgBoarding = newMessage("boarding",
		"⚠️ The ship leaves in {{.Lead}}! Head back now!",
		"The ship departs {{.Location}} at {{.Time}}. If you are late you may miss it. Please return to the ship now!")
	msgFeedback = newMessage("feedback",
		"✨ How was your trip?",
		"We'd love to hear about {{.TripName}}. Five minutes of feedback helps us make the next cruise even better!")
)

// render executes both templates. The templates are static and the data is
// plain strings, so an execution error means a programming mistake.
func (m message) render(d messageData) (title, body string) {
	var t, b strings.Builder
	if err := m.title.Execute(&t, d); err != nil {
		panic(fmt.Sprintf("trigger: render %s: %v", m.title.Name(), err))
	}
	if err := m.body.Execute(&b, d); err != nil {
		panic(fmt.Sprintf("trigger: render %s: %v", m.body.Name(), err))
	}
	return t.String(), b.String()
}

// humanDuration formats lead times the way they read in a notification:
// "1 hour", "3 hours", "90 minutes".
func humanDuration(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d == time.Minute:
		return "1 minute"
	default:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
}
