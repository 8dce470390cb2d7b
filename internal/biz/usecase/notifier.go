package usecase

import "log"

// Notifier is the user-visible notification surface (the toast analog).
// Errors caught inside a usecase never propagate further than this.
type Notifier interface {
	Notify(title, detail string)
}

// LogNotifier writes notifications to the process log. Default for headless
// runs.
type LogNotifier struct{}

func (LogNotifier) Notify(title, detail string) {
	if detail == "" {
		log.Printf("[notify] %s", title)
		return
	}
	log.Printf("[notify] %s: %s", title, detail)
}
