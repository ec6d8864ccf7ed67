package logtail

import (
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/homeyum/yum/internal/logging"
)

// Entry is one parsed log line. Unparseable lines keep their text in
// Message and leave the other fields empty.
type Entry struct {
	Time      time.Time
	Level     string
	Component string
	Message   string
	// Fields holds the trailing key=value text, unparsed.
	Fields string
}

var levels = map[string]string{
	"DEBUG": "DEBUG",
	"INFO":  "INFO",
	"WARN":  "WARN",
	"ERROR": "ERROR",
}

// Parse reads a line written by the console or JSON log handler.
func Parse(line string) Entry {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		if e, ok := parseJSON(trimmed); ok {
			return e
		}
	}
	return parseConsole(trimmed)
}

// parseConsole handles "<ts> <LEVEL> <component>: <msg> k=v ...".
func parseConsole(line string) Entry {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 3 {
		return Entry{Message: line}
	}
	ts, err := time.Parse(time.RFC3339, parts[0])
	level, known := levels[parts[1]]
	if err != nil || !known {
		return Entry{Message: line}
	}
	e := Entry{Time: ts, Level: level}
	rest := parts[2]
	if head, tail, ok := strings.Cut(rest, ": "); ok && !strings.ContainsAny(head, " =") {
		e.Component = head
		rest = tail
	}
	e.Message, e.Fields = splitFields(rest)
	return e
}

// splitFields separates the message from trailing key=value pairs. The
// first space-separated token containing '=' starts the fields.
func splitFields(s string) (string, string) {
	tokens := strings.Split(s, " ")
	for i, tok := range tokens {
		if i > 0 && strings.Contains(tok, "=") && !strings.HasPrefix(tok, "=") {
			return strings.Join(tokens[:i], " "), strings.Join(tokens[i:], " ")
		}
	}
	return s, ""
}

func parseJSON(line string) (Entry, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	e := Entry{}
	if ts, ok := raw["ts"].(string); ok {
		e.Time, _ = time.Parse(time.RFC3339, ts)
	}
	if lvl, ok := raw["level"].(string); ok {
		e.Level = strings.ToUpper(lvl)
	}
	if msg, ok := raw["msg"].(string); ok {
		e.Message = msg
	}
	if comp, ok := raw[logging.FieldComponent].(string); ok {
		e.Component = comp
	}

	var keys []string
	for k := range raw {
		switch k {
		case "ts", "level", "msg", logging.FieldComponent:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		val, _ := json.Marshal(raw[k])
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Trim(string(val), `"`))
	}
	e.Fields = b.String()
	return e, true
}
