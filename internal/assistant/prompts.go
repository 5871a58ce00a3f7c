package assistant

import (
	"fmt"
	"strings"

	"github.com/nerrad567/smartaura-core/internal/actuator"
)

const intentPrompt = `Classify the user's message into exactly one category and reply with the label only.

command-query: the user wants to control a device in the home, or says they are leaving.
  "Turn on the living room lights." -> command-query
  "Set the AC to 25 degrees." -> command-query
  "I'm leaving now." -> command-query
general-query: anything else, such as questions or small talk.
  "What is the weather in Colombo today?" -> general-query
  "Tell me a joke." -> general-query

Reply with command-query or general-query and nothing else.`

const generalPrompt = `You are SmartAura, a smart home assistant. Answer in one short sentence.
Be friendly and casual. Reply to greetings briefly. Give extra detail only when asked.`

// commandPrompt builds the command prompt for the configured devices.
func commandPrompt(devices []Device) string {
	var b strings.Builder
	b.WriteString("You control the following devices and nothing else. ")
	b.WriteString("Map the user's request to one label and reply with the label only.\n\n")

	for _, d := range devices {
		fmt.Fprintf(&b, "%s (%s):\n", d.Label, d.Kind)
		fmt.Fprintf(&b, "  switch on -> %s-control-on\n", d.Label)
		fmt.Fprintf(&b, "  switch off -> %s-control-off\n", d.Label)
		if lo, hi, _, ok := d.Kind.SettingRange(); ok {
			fmt.Fprintf(&b, "  set %s to N (%d to %d) -> %s-control-N\n", settingNoun(d.Kind), lo, hi, d.Label)
		}
		fmt.Fprintf(&b, "  anything else about this device -> %s-error\n", d.Label)
	}

	b.WriteString("\nThe user says they are leaving home -> leaving\n")
	b.WriteString("The user asks about a device not listed above -> no-access\n")
	b.WriteString("\nReply with the label and nothing else.")
	return b.String()
}

func settingNoun(k actuator.Kind) string {
	switch k {
	case actuator.KindAC:
		return "temperature"
	case actuator.KindFan:
		return "speed"
	default:
		return "level"
	}
}
