package entity

// Message is a role-tagged chat message. The set of roles is closed:
// only SystemMessage and UserMessage implement it.
type Message interface {
	Content() string
	message()
}

type SystemMessage struct {
	Text string
}

func (m SystemMessage) Content() string { return m.Text }
func (SystemMessage) message()          {}

type UserMessage struct {
	Text string
}

func (m UserMessage) Content() string { return m.Text }
func (UserMessage) message()          {}
