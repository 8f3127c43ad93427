package intent

import "strings"

// Prompts the assistant uses to ask for a missing reminder detail. The
// rewriter recognises a pending dialogue by finding them in the last bot turn.
const (
	AskTimePrompt       = "What time should I remind you?"
	AskMedicationPrompt = "Which medication is this for?"
)

// Context is the result of folding a reminder dialogue into one message.
type Context struct {
	// Message is the text classifiers should run on.
	Message string
	// InReminderContext is set when Message continues an unfinished reminder
	// request, relaxing the explicit-action requirement.
	InReminderContext bool
	// Abandoned is set when a prompt was pending but the new message did not
	// answer it.
	Abandoned bool
}

// Rewrite inspects history for a pending reminder prompt and, when message
// answers it, synthesises a complete reminder request. history is not
// modified.
func Rewrite(history []Turn, message string) Context {
	bot, ok := lastBotTurn(history)
	if !ok {
		return Context{Message: message}
	}
	prompt := strings.ToLower(bot.Text)

	switch {
	case strings.Contains(prompt, strings.ToLower(AskTimePrompt)):
		if _, ok := ExtractTime(message); !ok {
			return Context{Message: message, Abandoned: true}
		}
		for i := len(history) - 1; i >= 0; i-- {
			turn := history[i]
			if turn.Speaker == User && strings.Contains(strings.ToLower(turn.Text), "remind") {
				return Context{Message: turn.Text + " at " + message, InReminderContext: true}
			}
		}
		return Context{Message: message, Abandoned: true}

	case strings.Contains(prompt, strings.ToLower(AskMedicationPrompt)):
		for _, turn := range history {
			if turn.Speaker != User {
				continue
			}
			if hhmm, ok := ExtractTime(turn.Text); ok {
				name := strings.TrimSpace(message)
				return Context{Message: "remind me to take " + name + " at " + hhmm, InReminderContext: true}
			}
		}
		return Context{Message: message, Abandoned: true}
	}

	return Context{Message: message}
}

func lastBotTurn(history []Turn) (Turn, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Speaker == Bot {
			return history[i], true
		}
	}
	return Turn{}, false
}
