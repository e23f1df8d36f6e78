package relay

import "time"

// Message is the formatted representation of an activity, ready to cross the
// chat delivery boundary. It is transient and never persisted.
type Message struct {
	Title     string
	URL       string
	Color     int
	Timestamp time.Time
	Author    Author
	Footer    Footer
	Fields    []Field
}

// Author is the athlete block shown above the message title.
type Author struct {
	Name    string
	URL     string
	IconURL string
}

// Footer is the fixed attribution block.
type Footer struct {
	Text    string
	IconURL string
}

// Field is one name/value display pair.
type Field struct {
	Name   string
	Value  string
	Inline bool
}
