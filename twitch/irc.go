package twitch

import (
	"strings"
)

// Message is one parsed IRC line.
type Message struct {
	Tags    map[string]string
	Prefix  string
	Command string
	Params  []string
	// Trailing is the text after " :", the chat text for PRIVMSG.
	Trailing string
}

// Nick is the sender's login taken from the prefix.
func (m Message) Nick() string {
	if dn := m.Tags["display-name"]; dn != "" {
		return strings.ToLower(dn)
	}
	nick, _, _ := strings.Cut(m.Prefix, "!")
	return nick
}

// Channel is the first parameter without its leading '#'.
func (m Message) Channel() string {
	if len(m.Params) == 0 {
		return ""
	}
	return strings.TrimPrefix(m.Params[0], "#")
}

// ParseLine parses a single IRC line. It reports false for empty or
// malformed input.
func ParseLine(line string) (Message, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Message{}, false
	}
	var m Message

	if strings.HasPrefix(line, "@") {
		raw, rest, ok := strings.Cut(line[1:], " ")
		if !ok {
			return Message{}, false
		}
		m.Tags = parseTags(raw)
		line = rest
	}
	if strings.HasPrefix(line, ":") {
		prefix, rest, ok := strings.Cut(line[1:], " ")
		if !ok {
			return Message{}, false
		}
		m.Prefix = prefix
		line = rest
	}
	if head, trailing, ok := strings.Cut(line, " :"); ok {
		m.Trailing = trailing
		line = head
	} else if strings.HasPrefix(line, ":") {
		m.Trailing = line[1:]
		line = ""
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Message{}, false
	}
	m.Command = strings.ToUpper(fields[0])
	m.Params = fields[1:]
	return m, true
}

func parseTags(raw string) map[string]string {
	tags := make(map[string]string)
	for _, kv := range strings.Split(raw, ";") {
		k, v, _ := strings.Cut(kv, "=")
		if k == "" {
			continue
		}
		tags[k] = unescapeTag(v)
	}
	return tags
}

var tagUnescaper = strings.NewReplacer(`\:`, ";", `\s`, " ", `\\`, `\`, `\r`, "\r", `\n`, "\n")

func unescapeTag(v string) string {
	return tagUnescaper.Replace(v)
}
