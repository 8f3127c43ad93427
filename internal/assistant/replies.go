package assistant

import "github.com/2339036/medication-adherence-system/internal/intent"

const (
	msgEmpty = "Please enter a message."

	msgTaken  = "Nice work! Opening the Adherence page so you can mark today's dose as taken."
	msgMissed = "No problem. Opening the Adherence page so you can record the missed dose."

	msgAskTime       = intent.AskTimePrompt + ` (e.g. "8pm" or "20:00")`
	msgAskMedication = intent.AskMedicationPrompt + ` Try: "remind me to take metformin at 8pm"`
	msgLoginReminder = "Please log in first so I can set reminders for you."
	msgLoginNextDose = "Please log in first so I can check your reminders."
	msgNoReminders   = "You don't have any reminders set yet. Add one from the Medications page."

	msgGreeting      = "Hi! I can help you with reminders, adherence logging, and navigating the app. What do you need?"
	msgLoggingHelp   = "To log a dose, go to the Adherence page, select a date and mark each dose as Taken or Missed. You can also just tell me \"I took it\"."
	msgReminderHelp  = "To set reminders, go to Medications and add reminder times under each medication. The number of reminders should match the frequency (e.g. twice daily = 2 reminders). Or ask me: \"remind me to take metformin at 8pm\"."
	msgSafety        = "If this feels urgent or severe, please seek emergency medical help immediately. I can't provide emergency medical advice."
	msgNotUnderstood = "I'm not sure I understood. I can set reminders (\"remind me to take metformin at 8pm\"), log doses (\"I took it\"), tell you your next dose (\"when is my next dose\") or answer questions about using the app."

	fmtNotFound     = "I couldn't find a medication called %q in your list. Add it on the Medications page first."
	fmtReminderSet  = "Reminder set for %s at %s."
	fmtNextDose     = "Your next dose is %s at %s%s."
	fmtAlreadyTaken = "Your %s dose of %s is already logged as taken today. Your next dose after that is %s at %s%s."
	suffixTomorrow  = " tomorrow"
)

var (
	greetingKeywords = []string{"hi", "hello", "hey"}
	loggingKeywords  = []string{"log", "record", "taken", "missed", "adherence"}
	reminderKeywords = []string{"reminder", "reminders", "notify", "notification"}
	safetyKeywords   = []string{"chest pain", "cant breathe", "severe", "emergency"}
)
