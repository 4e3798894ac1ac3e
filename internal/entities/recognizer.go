package entities

import "context"

// Entity labels produced by a Recognizer.
const (
	LabelPerson = "PERSON"
	LabelDate   = "DATE"
	LabelMoney  = "MONEY"
)

// Bundle holds the unique mentions found in one text.
type Bundle struct {
	Persons []string `json:"persons"`
	Dates   []string `json:"dates"`
	Money   []string `json:"money"`
}

// Empty reports whether no mentions were found.
func (b Bundle) Empty() bool {
	return len(b.Persons) == 0 && len(b.Dates) == 0 && len(b.Money) == 0
}

// Recognizer finds PERSON, DATE and MONEY mentions in text.
type Recognizer interface {
	Recognize(ctx context.Context, text string) (Bundle, error)
}

// collector accumulates labelled mentions without repeats, in first-seen order.
type collector struct {
	seen map[string]map[string]struct{}
	b    Bundle
}

func newCollector() *collector {
	return &collector{seen: map[string]map[string]struct{}{
		LabelPerson: {},
		LabelDate:   {},
		LabelMoney:  {},
	}}
}

func (c *collector) add(label, text string) {
	set, ok := c.seen[label]
	if !ok || text == "" {
		return
	}
	if _, dup := set[text]; dup {
		return
	}
	set[text] = struct{}{}
	switch label {
	case LabelPerson:
		c.b.Persons = append(c.b.Persons, text)
	case LabelDate:
		c.b.Dates = append(c.b.Dates, text)
	case LabelMoney:
		c.b.Money = append(c.b.Money, text)
	}
}

func (c *collector) bundle() Bundle {
	return c.b
}
