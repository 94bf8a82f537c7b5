package combat

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLogSize is how many entries the combat log keeps.
const DefaultLogSize = 50

// Color is a log segment colour as a hex string.
type Color string

const (
	ColorText   Color = "#e0e0e0"
	ColorDamage Color = "#ff5555"
	ColorHeal   Color = "#50fa7b"
	ColorGold   Color = "#f1fa8c"
	ColorCrit   Color = "#ffb86c"
	ColorStatus Color = "#bd93f9"
	ColorInfo   Color = "#8be9fd"
)

// Segment is a run of same-coloured text.
type Segment struct {
	Text  string
	Color Color
}

func Text(s string) Segment { return Segment{Text: s, Color: ColorText} }

func Colored(s string, c Color) Segment { return Segment{Text: s, Color: c} }

// Entry is one log line.
type Entry struct {
	Segments []Segment
}

func (e Entry) String() string {
	var b strings.Builder
	for _, s := range e.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Log is a bounded list of entries, oldest first.
type Log struct {
	max     int
	entries []Entry
	printer *message.Printer

	OnEntry func(Entry)
}

func NewLog(size int) *Log {
	if size <= 0 {
		size = DefaultLogSize
	}
	return &Log{max: size, printer: message.NewPrinter(language.English)}
}

func (l *Log) Add(segs ...Segment) {
	if l == nil || len(segs) == 0 {
		return
	}
	e := Entry{Segments: segs}
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.max; over > 0 {
		l.entries = append(l.entries[:0], l.entries[over:]...)
	}
	if l.OnEntry != nil {
		l.OnEntry(e)
	}
}

// Entries returns a copy of the log.
func (l *Log) Entries() []Entry {
	if l == nil {
		return nil
	}
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

func (l *Log) Clear() {
	if l == nil {
		return
	}
	l.entries = l.entries[:0]
}

// Number formats n with thousands separators.
func (l *Log) Number(n int) string {
	return l.printer.Sprintf("%d", n)
}

// Coins returns a gold segment such as "1,250 coins".
func (l *Log) Coins(n int) Segment {
	return Colored(l.printer.Sprintf("%d coins", n), ColorGold)
}
