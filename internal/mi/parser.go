package mi

import (
	"fmt"
	"strconv"
	"strings"
)

// knownNotifications is the closed set of notification classes GDB emits.
var knownNotifications = map[NotificationClass]bool{
	NotifyBreakpointCreated:  true,
	NotifyBreakpointModified: true,
	NotifyBreakpointDeleted:  true,
	NotifyThreadGroupAdded:   true,
	NotifyThreadGroupStarted: true,
	NotifyThreadGroupExited:  true,
	NotifyThreadCreated:      true,
	NotifyThreadSelected:     true,
	NotifyThreadExited:       true,
	NotifyLibraryLoaded:      true,
	NotifyLibraryUnloaded:    true,
	NotifyCmdParamChanged:    true,
	NotifyParamChanged:       true,
	NotifyMemoryChanged:      true,
}

// ParseLine parses exactly one line of MI output into a record. Blank lines
// and the "(gdb)" prompt sentinel yield (nil, nil). Lines that do not match
// any record shape are returned as console stream records; structurally
// broken lines (unterminated strings, lists, tuples, unknown classes) return
// an error so the caller can decide how to degrade.
func ParseLine(line string) (Record, error) {
	line = strings.TrimSpace(line)
	if line == "" || line == "(gdb)" {
		return nil, nil
	}

	// Optional decimal token before the prefix character.
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	var token uint64
	if i > 0 && i < len(line) {
		if t, err := strconv.ParseUint(line[:i], 10, 64); err == nil {
			token = t
		}
	}
	if i >= len(line) {
		// All digits, no prefix. Not a record shape we know.
		return StreamRecord{Channel: StreamConsole, Text: line}, nil
	}

	prefix := line[i]
	rest := line[i+1:]

	switch prefix {
	case '^':
		class, payload := splitClass(rest)
		switch ResultClass(class) {
		case ResultDone, ResultRunning, ResultConnected, ResultError, ResultExit:
			results, err := parseResults(payload)
			if err != nil {
				return nil, err
			}
			return ResultRecord{Token: token, Class: ResultClass(class), Results: results}, nil
		}
		return nil, fmt.Errorf("unknown result class %q", class)

	case '*':
		class, payload := splitClass(rest)
		switch AsyncClass(class) {
		case AsyncStopped, AsyncRunning:
			results, err := parseResults(payload)
			if err != nil {
				return nil, err
			}
			return ExecAsyncRecord{Token: token, Class: AsyncClass(class), Results: results}, nil
		}
		return nil, fmt.Errorf("unknown async class %q", class)

	case '=', '+':
		class, payload := splitClass(rest)
		nc := NotificationClass(class)
		if !knownNotifications[nc] {
			return nil, fmt.Errorf("unknown notification class %q", class)
		}
		results, err := parseResults(payload)
		if err != nil {
			return nil, err
		}
		return NotificationRecord{Class: nc, Results: results}, nil

	case '~', '@', '&':
		channel := StreamConsole
		switch prefix {
		case '@':
			channel = StreamTarget
		case '&':
			channel = StreamLog
		}
		if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
			return nil, fmt.Errorf("malformed stream record")
		}
		return StreamRecord{Channel: channel, Text: unescape(rest[1 : len(rest)-1])}, nil
	}

	// Unknown shape: surface the raw line on the console channel rather than
	// dropping it. GDB versions disagree about exactly what they print.
	return StreamRecord{Channel: StreamConsole, Text: line}, nil
}

// splitClass separates the record class from the ",results" payload.
func splitClass(s string) (class, payload string) {
	if idx := strings.IndexByte(s, ','); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return s, ""
}

// parseResults parses a comma-separated sequence of variable=value pairs.
// A malformed pair fails the whole payload; the caller degrades the line.
func parseResults(input string) ([]Result, error) {
	var results []Result
	rest := input
	for rest != "" {
		res, remaining, err := parseResult(rest)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
		rest = strings.TrimPrefix(remaining, ",")
	}
	return results, nil
}

func parseResult(input string) (Result, string, error) {
	eq := strings.IndexByte(input, '=')
	if eq < 0 {
		return Result{}, "", fmt.Errorf("no '=' in result")
	}
	variable := input[:eq]
	value, rest, err := parseValue(input[eq+1:])
	if err != nil {
		return Result{}, "", err
	}
	return Result{Variable: variable, Value: value}, rest, nil
}

// parseValue parses one value: a quoted constant, a tuple, a list, a
// key=value pair (inside result lists) or a bare constant.
func parseValue(input string) (Value, string, error) {
	input = strings.TrimLeft(input, " ")
	if input == "" {
		return NoneValue{}, "", nil
	}

	switch input[0] {
	case '"':
		s, rest, err := parseString(input)
		if err != nil {
			return nil, "", err
		}
		return StringValue(s), rest, nil
	case '[':
		return parseList(input)
	case '{':
		return parseTuple(input)
	}

	// key=value element (result lists carry these).
	if eq := strings.IndexByte(input, '='); eq >= 0 && isIdent(input[:eq]) {
		inner, rest, err := parseValue(input[eq+1:])
		if err != nil {
			return nil, "", err
		}
		return KeyedValue{Key: input[:eq], Value: inner}, rest, nil
	}

	// Bare constant up to the next delimiter.
	end := strings.IndexAny(input, ",}]")
	if end < 0 {
		end = len(input)
	}
	return StringValue(input[:end]), input[end:], nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// parseString consumes a quoted constant and returns it unescaped together
// with the input remaining after the closing quote.
func parseString(input string) (string, string, error) {
	if input == "" || input[0] != '"' {
		return "", "", fmt.Errorf("string must start with '\"'")
	}
	var b strings.Builder
	escaped := false
	for i := 1; i < len(input); i++ {
		c := input[i]
		if escaped {
			switch c {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			default:
				b.WriteByte('\\')
				b.WriteByte(c)
			}
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			return b.String(), input[i+1:], nil
		default:
			b.WriteByte(c)
		}
	}
	return "", "", fmt.Errorf("unterminated string")
}

// matchDelim returns the index of the closing delimiter matching input[0],
// scanning depth-counted over {} and [], suspended inside quoted strings.
func matchDelim(input string) (int, error) {
	depth := 0
	inString := false
	escape := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		if escape {
			escape = false
			continue
		}
		switch c {
		case '\\':
			escape = true
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				depth++
			}
		case '}', ']':
			if !inString {
				depth--
				if depth == 0 {
					return i, nil
				}
			}
		}
	}
	return 0, fmt.Errorf("unterminated %q", input[0])
}

// parseList parses a [...] list. Elements may be bare values or key=value
// pairs; the latter are preserved as KeyedValue entries.
func parseList(input string) (Value, string, error) {
	end, err := matchDelim(input)
	if err != nil {
		return nil, "", err
	}
	inner := strings.TrimSpace(input[1:end])
	rest := input[end+1:]

	list := ListValue{}
	for _, elem := range splitTopLevel(inner) {
		v, _, err := parseValue(elem)
		if err != nil {
			return nil, "", err
		}
		list = append(list, v)
	}
	return list, rest, nil
}

// parseTuple parses a {...} tuple of key=value entries.
func parseTuple(input string) (Value, string, error) {
	end, err := matchDelim(input)
	if err != nil {
		return nil, "", err
	}
	inner := strings.TrimSpace(input[1:end])
	rest := input[end+1:]

	tuple := TupleValue{}
	for _, entry := range splitTopLevel(inner) {
		eq := strings.IndexByte(entry, '=')
		if eq < 0 {
			return nil, "", fmt.Errorf("no '=' in tuple entry")
		}
		key := strings.TrimSpace(entry[:eq])
		rawValue := strings.TrimSpace(entry[eq+1:])
		if rawValue == "" {
			tuple[key] = NoneValue{}
			continue
		}
		v, _, err := parseValue(rawValue)
		if err != nil {
			return nil, "", err
		}
		tuple[key] = v
	}
	return tuple, rest, nil
}

// splitTopLevel splits on commas at nesting depth zero, respecting strings.
func splitTopLevel(s string) []string {
	if s == "" {
		return nil
	}
	var parts []string
	depth := 0
	inString := false
	escape := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escape {
			escape = false
			continue
		}
		switch c {
		case '\\':
			escape = true
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				depth++
			}
		case '}', ']':
			if !inString {
				depth--
			}
		case ',':
			if !inString && depth == 0 {
				if part := strings.TrimSpace(s[start:i]); part != "" {
					parts = append(parts, part)
				}
				start = i + 1
			}
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}

// unescape decodes the escape sequences GDB uses in stream records.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		case '\\':
			b.WriteByte('\\')
			i++
		case '"':
			b.WriteByte('"')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
