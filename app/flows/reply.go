// Package flows drives the multi-step conversations as explicit
// state-transition tables executed by a transport-agnostic engine.
package flows

// Menu selects which command keyboard accompanies a reply.
type Menu int

const (
	// MenuKeep leaves the current keyboard untouched.
	MenuKeep Menu = iota
	// MenuPublic shows the public command keyboard.
	MenuPublic
	// MenuManager shows the manager command keyboard.
	MenuManager
)

// Button is one selectable option: a label plus an opaque action token.
type Button struct {
	Label   string
	Action  string
	Payload string
}

// Reply is the outcome of a turn: response text, optional selectable
// options and an optional keyboard switch.
type Reply struct {
	Text    string
	Buttons []Button
	Menu    Menu
}

// Bag is a snapshot of the partially collected input of a flow.
type Bag map[string]interface{}

// String returns a string field from the bag.
func (b Bag) String(key string) string {
	if v, ok := b[key].(string); ok {
		return v
	}
	return ""
}

// Int returns an int field from the bag.
func (b Bag) Int(key string) int {
	if v, ok := b[key].(int); ok {
		return v
	}
	return 0
}

// Int64 returns an int64 field from the bag.
func (b Bag) Int64(key string) int64 {
	switch v := b[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
