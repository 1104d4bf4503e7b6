package mi

import "strconv"

// Decoders extract typed entities from parsed records. They are pure
// functions over []Result: unknown fields are ignored and missing optional
// fields degrade to zero values, so newer GDBs with extra output still
// decode. A nil return means the minimum required field was absent.

// TupleString returns the string value stored under key, if any.
func TupleString(t TupleValue, key string) (string, bool) {
	if v, ok := t[key].(StringValue); ok {
		return string(v), true
	}
	return "", false
}

func tupleStr(t TupleValue, key string) string {
	s, _ := TupleString(t, key)
	return s
}

func tupleUint(t TupleValue, key string) uint64 {
	s, ok := TupleString(t, key)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseUint(s, 10, 64)
	return n
}

// FindString returns the top-level string value named variable, if any.
func FindString(results []Result, variable string) (string, bool) {
	for _, r := range results {
		if r.Variable == variable {
			if s, ok := r.Value.(StringValue); ok {
				return string(s), true
			}
		}
	}
	return "", false
}

// FindTuple returns the top-level tuple named variable, if any.
func FindTuple(results []Result, variable string) (TupleValue, bool) {
	for _, r := range results {
		if r.Variable == variable {
			if t, ok := r.Value.(TupleValue); ok {
				return t, true
			}
		}
	}
	return nil, false
}

// FindList returns the top-level list named variable, if any.
func FindList(results []Result, variable string) (ListValue, bool) {
	for _, r := range results {
		if r.Variable == variable {
			if l, ok := r.Value.(ListValue); ok {
				return l, true
			}
		}
	}
	return nil, false
}

// DecodeBreakpoint decodes the bkpt tuple of a break-insert reply or a
// breakpoint-created/modified notification.
func DecodeBreakpoint(results []Result) *Breakpoint {
	tuple, ok := FindTuple(results, "bkpt")
	if !ok {
		return nil
	}
	return breakpointFromTuple(tuple)
}

func breakpointFromTuple(t TupleValue) *Breakpoint {
	number, ok := TupleString(t, "number")
	if !ok {
		return nil
	}
	bp := &Breakpoint{
		Number:           number,
		Type:             tupleStr(t, "type"),
		Disposition:      tupleStr(t, "disp"),
		Enabled:          decodeEnabled(t),
		Addr:             tupleStr(t, "addr"),
		Func:             tupleStr(t, "func"),
		File:             tupleStr(t, "file"),
		Fullname:         tupleStr(t, "fullname"),
		Line:             tupleUint(t, "line"),
		Times:            tupleUint(t, "times"),
		OriginalLocation: tupleStr(t, "original-location"),
		Condition:        tupleStr(t, "cond"),
		IgnoreCount:      tupleUint(t, "ignore"),
	}
	if groups, ok := t["thread-groups"].(ListValue); ok {
		for _, g := range groups {
			if s, ok := g.(StringValue); ok {
				bp.ThreadGroups = append(bp.ThreadGroups, string(s))
			}
		}
	}
	return bp
}

func decodeEnabled(t TupleValue) bool {
	if s, ok := TupleString(t, "enabled"); ok {
		return s == "y"
	}
	return true
}

// DecodeWatchpoint decodes the wpt/hw-rwpt/hw-awpt tuple of a break-watch
// reply. The kind comes from the command flag, not the wire.
func DecodeWatchpoint(results []Result, kind WatchpointKind) *Watchpoint {
	for _, variable := range []string{"wpt", "hw-rwpt", "hw-awpt"} {
		tuple, ok := FindTuple(results, variable)
		if !ok {
			continue
		}
		number, ok := TupleString(tuple, "number")
		if !ok {
			return nil
		}
		return &Watchpoint{
			Number:     number,
			Kind:       kind,
			Enabled:    decodeEnabled(tuple),
			Addr:       tupleStr(tuple, "addr"),
			Expression: tupleStr(tuple, "exp"),
			Size:       tupleUint(tuple, "size"),
		}
	}
	return nil
}

// DecodeFrame decodes the frame tuple of a stopped record or a
// stack-info-frame reply.
func DecodeFrame(results []Result) *Frame {
	tuple, ok := FindTuple(results, "frame")
	if !ok {
		return nil
	}
	return frameFromTuple(tuple)
}

func frameFromTuple(t TupleValue) *Frame {
	if _, ok := TupleString(t, "level"); !ok {
		return nil
	}
	return &Frame{
		Level:    tupleUint(t, "level"),
		Addr:     tupleStr(t, "addr"),
		Func:     tupleStr(t, "func"),
		File:     tupleStr(t, "file"),
		Fullname: tupleStr(t, "fullname"),
		Line:     tupleUint(t, "line"),
		Arch:     tupleStr(t, "arch"),
	}
}

// DecodeBreakpointList decodes the body of a BreakpointTable. The body is a
// result list: each element is a bkpt= keyed tuple, though some GDB versions
// flatten later rows into loose keyed fields and others emit bare tuples.
func DecodeBreakpointList(results []Result) []Breakpoint {
	table, ok := FindTuple(results, "BreakpointTable")
	if !ok {
		return nil
	}
	body, ok := table["body"].(ListValue)
	if !ok {
		return nil
	}

	var breakpoints []Breakpoint
	var current *Breakpoint
	flush := func() {
		if current != nil && current.Number != "" {
			breakpoints = append(breakpoints, *current)
		}
		current = nil
	}

	for _, item := range body {
		switch v := item.(type) {
		case KeyedValue:
			if v.Key == "bkpt" {
				flush()
				if inner, ok := v.Value.(TupleValue); ok {
					current = breakpointFromTuple(inner)
				}
				continue
			}
			// Loose keyed field belonging to the breakpoint in progress.
			if current == nil {
				continue
			}
			switch val := v.Value.(type) {
			case StringValue:
				applyBreakpointField(current, v.Key, string(val))
			case ListValue:
				if v.Key == "thread-groups" {
					current.ThreadGroups = nil
					for _, g := range val {
						if s, ok := g.(StringValue); ok {
							current.ThreadGroups = append(current.ThreadGroups, string(s))
						}
					}
				}
			}
		case TupleValue:
			flush()
			if bp := breakpointFromTuple(v); bp != nil {
				breakpoints = append(breakpoints, *bp)
			}
		}
	}
	flush()
	return breakpoints
}

func applyBreakpointField(bp *Breakpoint, key, value string) {
	switch key {
	case "number":
		bp.Number = value
	case "type":
		bp.Type = value
	case "disp":
		bp.Disposition = value
	case "enabled":
		bp.Enabled = value == "y"
	case "addr":
		bp.Addr = value
	case "func":
		bp.Func = value
	case "file":
		bp.File = value
	case "fullname":
		bp.Fullname = value
	case "line":
		bp.Line, _ = strconv.ParseUint(value, 10, 64)
	case "times":
		bp.Times, _ = strconv.ParseUint(value, 10, 64)
	case "original-location":
		bp.OriginalLocation = value
	case "cond":
		bp.Condition = value
	case "ignore":
		bp.IgnoreCount, _ = strconv.ParseUint(value, 10, 64)
	}
}

// DecodeStackFrames decodes a stack-list-frames reply. The stack list holds
// frame= keyed tuples; bare tuples are accepted too.
func DecodeStackFrames(results []Result) []Frame {
	stack, ok := FindList(results, "stack")
	if !ok {
		return nil
	}
	var frames []Frame
	for _, item := range stack {
		var tuple TupleValue
		switch v := item.(type) {
		case KeyedValue:
			tuple, _ = v.Value.(TupleValue)
		case TupleValue:
			tuple = v
		}
		if tuple == nil {
			continue
		}
		if f := frameFromTuple(tuple); f != nil {
			frames = append(frames, *f)
		}
	}
	return frames
}

// DecodeThreadIDs decodes a thread-list-ids reply. Older GDBs report the ids
// as a result list under thread-ids, newer ones as a plain list.
func DecodeThreadIDs(results []Result) []string {
	var ids []string
	collect := func(v Value) {
		switch val := v.(type) {
		case StringValue:
			ids = append(ids, string(val))
		case KeyedValue:
			if s, ok := val.Value.(StringValue); ok {
				ids = append(ids, string(s))
			}
		case ListValue:
			for _, item := range val {
				if s, ok := item.(StringValue); ok {
					ids = append(ids, string(s))
				}
			}
		}
	}
	for _, r := range results {
		if r.Variable != "thread-ids" {
			continue
		}
		switch v := r.Value.(type) {
		case TupleValue:
			for _, inner := range v {
				collect(inner)
			}
		case ListValue:
			for _, item := range v {
				collect(item)
			}
		}
	}
	return ids
}

// DecodeMemoryContent decodes a data-read-memory-bytes reply. The contents
// blob is kept whole; callers chunk byte pairs themselves.
func DecodeMemoryContent(results []Result) *MemoryContent {
	memory, ok := FindList(results, "memory")
	if !ok || len(memory) == 0 {
		return nil
	}
	tuple, ok := memory[0].(TupleValue)
	if !ok {
		return nil
	}
	addr, ok := TupleString(tuple, "begin")
	if !ok {
		if addr, ok = TupleString(tuple, "addr"); !ok {
			if addr, ok = TupleString(tuple, "offset"); !ok {
				return nil
			}
		}
	}
	contents, ok := TupleString(tuple, "contents")
	if !ok {
		return nil
	}
	return &MemoryContent{Addr: addr, Data: []string{contents}}
}

// DecodeRegisterNames decodes a data-list-register-names reply.
func DecodeRegisterNames(results []Result) []string {
	list, ok := FindList(results, "register-names")
	if !ok {
		return nil
	}
	names := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(StringValue); ok {
			names = append(names, string(s))
		}
	}
	return names
}

// DecodeRegisterValues decodes a data-list-register-values reply. Names are
// not on the wire here; callers join against DecodeRegisterNames.
func DecodeRegisterValues(results []Result) []Register {
	list, ok := FindList(results, "register-values")
	if !ok {
		return nil
	}
	var registers []Register
	for _, item := range list {
		tuple, ok := item.(TupleValue)
		if !ok {
			continue
		}
		numberStr, ok := TupleString(tuple, "number")
		if !ok {
			continue
		}
		value, ok := TupleString(tuple, "value")
		if !ok {
			continue
		}
		number, err := strconv.ParseUint(numberStr, 10, 64)
		if err != nil {
			continue
		}
		registers = append(registers, Register{Number: number, Value: value})
	}
	return registers
}

// DecodeVariable decodes a var-create reply. fallbackName is used when GDB
// omits the name field.
func DecodeVariable(results []Result, fallbackName string) *Variable {
	v := &Variable{Name: fallbackName}
	if name, ok := FindString(results, "name"); ok {
		v.Name = name
	}
	v.Value, _ = FindString(results, "value")
	v.Type, _ = FindString(results, "type")
	if attrs, ok := FindList(results, "attributes"); ok {
		for _, a := range attrs {
			if s, ok := a.(StringValue); ok {
				v.Attributes = append(v.Attributes, string(s))
			}
		}
	}
	return v
}

// DecodeVariableChildren decodes a var-list-children reply.
func DecodeVariableChildren(results []Result) []Variable {
	children, ok := FindList(results, "children")
	if !ok {
		return nil
	}
	var vars []Variable
	for _, item := range children {
		var tuple TupleValue
		switch v := item.(type) {
		case KeyedValue:
			tuple, _ = v.Value.(TupleValue)
		case TupleValue:
			tuple = v
		}
		if tuple == nil {
			continue
		}
		name, ok := TupleString(tuple, "name")
		if !ok {
			continue
		}
		vars = append(vars, Variable{
			Name:  name,
			Value: tupleStr(tuple, "value"),
			Type:  tupleStr(tuple, "type"),
		})
	}
	return vars
}

// DecodeThread decodes a thread from new-thread-id/id results where present.
func DecodeThread(results []Result) *Thread {
	for _, variable := range []string{"new-thread-id", "id"} {
		for _, r := range results {
			if r.Variable != variable {
				continue
			}
			switch v := r.Value.(type) {
			case TupleValue:
				id, ok := TupleString(v, "id")
				if !ok {
					continue
				}
				t := &Thread{
					ID:       id,
					TargetID: tupleStr(v, "target-id"),
					Name:     tupleStr(v, "name"),
					State:    ThreadStopped,
				}
				if coreStr, ok := TupleString(v, "core"); ok {
					if core, err := strconv.ParseUint(coreStr, 10, 64); err == nil {
						t.Core = &core
					}
				}
				return t
			case StringValue:
				return &Thread{ID: string(v), TargetID: string(v), State: ThreadStopped}
			}
		}
	}
	return nil
}
