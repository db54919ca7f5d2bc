package parser

// Element is one structural piece of a partitioned document: either a
// title-like element that opens a new section, or a span of body text.
// Partitioning preserves document reading order.
type Element struct {
	Text  string
	Title bool
}

func title(text string) Element { return Element{Text: text, Title: true} }
func body(text string) Element  { return Element{Text: text} }
