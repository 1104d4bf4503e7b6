package mi

import (
	"reflect"
	"testing"
)

func TestParseLine_NoRecord(t *testing.T) {
	for _, line := range []string{"", "   ", "(gdb)", "  (gdb)  "} {
		rec, err := ParseLine(line)
		if err != nil {
			t.Errorf("ParseLine(%q) error = %v", line, err)
		}
		if rec != nil {
			t.Errorf("ParseLine(%q) = %v, want nil", line, rec)
		}
	}
}

func TestParseLine_ResultClasses(t *testing.T) {
	tests := []struct {
		line  string
		class ResultClass
	}{
		{"^done", ResultDone},
		{"^running", ResultRunning},
		{"^connected", ResultConnected},
		{"^error,msg=\"nope\"", ResultError},
		{"^exit", ResultExit},
	}
	for _, tt := range tests {
		rec, err := ParseLine(tt.line)
		if err != nil {
			t.Fatalf("ParseLine(%q) error = %v", tt.line, err)
		}
		result, ok := rec.(ResultRecord)
		if !ok {
			t.Fatalf("ParseLine(%q) = %T, want ResultRecord", tt.line, rec)
		}
		if result.Class != tt.class {
			t.Errorf("class = %v, want %v", result.Class, tt.class)
		}
		if result.Token != 0 {
			t.Errorf("token = %v, want 0", result.Token)
		}
	}
}

func TestParseLine_Token(t *testing.T) {
	rec, err := ParseLine("42^done")
	if err != nil {
		t.Fatalf("ParseLine error = %v", err)
	}
	result := rec.(ResultRecord)
	if result.Token != 42 {
		t.Errorf("token = %v, want 42", result.Token)
	}

	rec, err = ParseLine("7*running,thread-id=\"all\"")
	if err != nil {
		t.Fatalf("ParseLine error = %v", err)
	}
	async := rec.(ExecAsyncRecord)
	if async.Token != 7 {
		t.Errorf("token = %v, want 7", async.Token)
	}
}

func TestParseLine_NestedValues(t *testing.T) {
	rec, err := ParseLine(`^done,x="1",y={a="2",b=["3","4"]}`)
	if err != nil {
		t.Fatalf("ParseLine error = %v", err)
	}
	result := rec.(ResultRecord)
	if result.Class != ResultDone {
		t.Fatalf("class = %v, want done", result.Class)
	}
	if len(result.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(result.Results))
	}

	if result.Results[0].Variable != "x" {
		t.Errorf("first variable = %q, want x", result.Results[0].Variable)
	}
	if s, ok := result.Results[0].Value.(StringValue); !ok || s != "1" {
		t.Errorf("x = %v, want String 1", result.Results[0].Value)
	}

	tuple, ok := result.Results[1].Value.(TupleValue)
	if !ok {
		t.Fatalf("y = %T, want TupleValue", result.Results[1].Value)
	}
	if a, _ := TupleString(tuple, "a"); a != "2" {
		t.Errorf("y.a = %q, want 2", a)
	}
	list, ok := tuple["b"].(ListValue)
	if !ok {
		t.Fatalf("y.b = %T, want ListValue", tuple["b"])
	}
	want := ListValue{StringValue("3"), StringValue("4")}
	if !reflect.DeepEqual(list, want) {
		t.Errorf("y.b = %v, want %v", list, want)
	}
}

func TestParseLine_Stopped(t *testing.T) {
	rec, err := ParseLine(`*stopped,reason="breakpoint-hit",thread-id="1",frame={level="0",addr="0x400",func="main"}`)
	if err != nil {
		t.Fatalf("ParseLine error = %v", err)
	}
	async, ok := rec.(ExecAsyncRecord)
	if !ok {
		t.Fatalf("record = %T, want ExecAsyncRecord", rec)
	}
	if async.Class != AsyncStopped {
		t.Errorf("class = %v, want stopped", async.Class)
	}
	if reason, _ := FindString(async.Results, "reason"); StopReason(reason) != StopBreakpointHit {
		t.Errorf("reason = %q, want breakpoint-hit", reason)
	}
	if id, _ := FindString(async.Results, "thread-id"); id != "1" {
		t.Errorf("thread-id = %q, want 1", id)
	}
	frame := DecodeFrame(async.Results)
	if frame == nil {
		t.Fatal("DecodeFrame = nil")
	}
	if frame.Level != 0 || frame.Func != "main" {
		t.Errorf("frame = %+v, want level 0 func main", frame)
	}
}

func TestParseLine_Notification(t *testing.T) {
	rec, err := ParseLine(`=breakpoint-created,bkpt={number="1"}`)
	if err != nil {
		t.Fatalf("ParseLine error = %v", err)
	}
	notif, ok := rec.(NotificationRecord)
	if !ok {
		t.Fatalf("record = %T, want NotificationRecord", rec)
	}
	if notif.Class != NotifyBreakpointCreated {
		t.Errorf("class = %v, want breakpoint-created", notif.Class)
	}
}

func TestParseLine_StatusAsync(t *testing.T) {
	// + records are treated as notifications
	rec, err := ParseLine(`+thread-created,id="2",group-id="i1"`)
	if err != nil {
		t.Fatalf("ParseLine error = %v", err)
	}
	notif, ok := rec.(NotificationRecord)
	if !ok {
		t.Fatalf("record = %T, want NotificationRecord", rec)
	}
	if notif.Class != NotifyThreadCreated {
		t.Errorf("class = %v, want thread-created", notif.Class)
	}
}

func TestParseLine_Streams(t *testing.T) {
	tests := []struct {
		line    string
		channel StreamChannel
		text    string
	}{
		{`~"Hello\n"`, StreamConsole, "Hello\n"},
		{`@"target out"`, StreamTarget, "target out"},
		{`&"warning: foo\n"`, StreamLog, "warning: foo\n"},
		{`~"tab\there"`, StreamConsole, "tab\there"},
		{`~"quote \" and backslash \\"`, StreamConsole, `quote " and backslash \`},
	}
	for _, tt := range tests {
		rec, err := ParseLine(tt.line)
		if err != nil {
			t.Fatalf("ParseLine(%q) error = %v", tt.line, err)
		}
		stream, ok := rec.(StreamRecord)
		if !ok {
			t.Fatalf("ParseLine(%q) = %T, want StreamRecord", tt.line, rec)
		}
		if stream.Channel != tt.channel {
			t.Errorf("channel = %v, want %v", stream.Channel, tt.channel)
		}
		if stream.Text != tt.text {
			t.Errorf("text = %q, want %q", stream.Text, tt.text)
		}
	}
}

func TestParseLine_UnknownShapeIsConsole(t *testing.T) {
	rec, err := ParseLine("Reading symbols from /bin/true...")
	if err != nil {
		t.Fatalf("ParseLine error = %v", err)
	}
	stream, ok := rec.(StreamRecord)
	if !ok {
		t.Fatalf("record = %T, want StreamRecord", rec)
	}
	if stream.Channel != StreamConsole {
		t.Errorf("channel = %v, want console", stream.Channel)
	}
}

func TestParseLine_Errors(t *testing.T) {
	for _, line := range []string{
		`^done,x="unterminated`,
		`^done,x={a="1"`,
		`^done,x=["1"`,
		`^done,body=["1",{noequals}]`,
		`^bogus`,
		`*bogus`,
		`=definitely-not-a-thing,x="1"`,
		`~"no closing quote`,
	} {
		if _, err := ParseLine(line); err == nil {
			t.Errorf("ParseLine(%q) expected error", line)
		}
	}
}

func TestParseLine_ResultList(t *testing.T) {
	rec, err := ParseLine(`^done,body=[bkpt={number="1"},bkpt={number="2"}]`)
	if err != nil {
		t.Fatalf("ParseLine error = %v", err)
	}
	result := rec.(ResultRecord)
	list, ok := result.Results[0].Value.(ListValue)
	if !ok {
		t.Fatalf("body = %T, want ListValue", result.Results[0].Value)
	}
	if len(list) != 2 {
		t.Fatalf("body len = %d, want 2", len(list))
	}
	for i, item := range list {
		kv, ok := item.(KeyedValue)
		if !ok {
			t.Fatalf("body[%d] = %T, want KeyedValue", i, item)
		}
		if kv.Key != "bkpt" {
			t.Errorf("body[%d].Key = %q, want bkpt", i, kv.Key)
		}
		if _, ok := kv.Value.(TupleValue); !ok {
			t.Errorf("body[%d].Value = %T, want TupleValue", i, kv.Value)
		}
	}
}

func TestParseLine_EmptyContainers(t *testing.T) {
	rec, err := ParseLine(`^done,hdr=[],cfg={}`)
	if err != nil {
		t.Fatalf("ParseLine error = %v", err)
	}
	result := rec.(ResultRecord)
	if list, ok := result.Results[0].Value.(ListValue); !ok || len(list) != 0 {
		t.Errorf("hdr = %v, want empty list", result.Results[0].Value)
	}
	if tuple, ok := result.Results[1].Value.(TupleValue); !ok || len(tuple) != 0 {
		t.Errorf("cfg = %v, want empty tuple", result.Results[1].Value)
	}
}

func TestParseLine_CommaInsideString(t *testing.T) {
	rec, err := ParseLine(`^done,value="a, b, {c}",next="ok"`)
	if err != nil {
		t.Fatalf("ParseLine error = %v", err)
	}
	result := rec.(ResultRecord)
	if len(result.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(result.Results))
	}
	if v, _ := FindString(result.Results, "value"); v != "a, b, {c}" {
		t.Errorf("value = %q", v)
	}
	if v, _ := FindString(result.Results, "next"); v != "ok" {
		t.Errorf("next = %q", v)
	}
}
