package gdb

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/HyphaGroup/inquisitor/internal/mi"
	"github.com/HyphaGroup/inquisitor/internal/testutil"
)

// newTestEngine wires an engine to a fake debugger, skipping the subprocess
// spawn and handshake.
func newTestEngine(t *testing.T, fake *testutil.FakeGDB, timeout time.Duration) *Engine {
	t.Helper()
	e := New(Config{Timeout: timeout})
	e.stdin = fake.EngineStdin
	e.attach(fake.EngineStdout, fake.EngineStderr)
	e.state.update(func(s *SessionState) { s.Connected = true })
	t.Cleanup(fake.Close)
	return e
}

func waitEvent(t *testing.T, events <-chan Event, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(timeout):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestSend_NotStarted(t *testing.T) {
	e := New(Config{})
	if _, err := e.Send("break-list"); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Send error = %v, want ErrNotStarted", err)
	}
	if err := e.SendAsync("break-list"); !errors.Is(err, ErrNotStarted) {
		t.Errorf("SendAsync error = %v, want ErrNotStarted", err)
	}
}

func TestStart_AlreadyStarted(t *testing.T) {
	e := New(Config{})
	e.cmd = exec.Command("true")
	if err := e.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Start error = %v, want ErrAlreadyStarted", err)
	}
}

func TestSend_RepliesMatchTokens(t *testing.T) {
	// Two commands whose replies arrive in adversarial (reversed) order:
	// each caller must still receive the reply bearing its own token.
	var mu sync.Mutex
	var firstToken uint64
	var firstID string

	fake := testutil.NewFakeGDB(func(token uint64, command string) []string {
		id := command[len("echo-"):]
		mu.Lock()
		defer mu.Unlock()
		if firstID == "" {
			firstToken, firstID = token, id
			return nil // held back until the second command arrives
		}
		return []string{
			fmt.Sprintf("^done,id=%q", id),
			fmt.Sprintf("%d^done,id=%q", firstToken, firstID),
		}
	})
	e := newTestEngine(t, fake, 5*time.Second)

	type outcome struct {
		id  string
		got string
		err error
	}
	results := make(chan outcome, 2)
	var wg sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			rec, err := e.Send("echo-" + id)
			got, _ := mi.FindString(rec.Results, "id")
			results <- outcome{id: id, got: got, err: err}
		}(id)
		time.Sleep(50 * time.Millisecond) // deterministic arrival order
	}
	wg.Wait()
	close(results)

	for res := range results {
		if res.err != nil {
			t.Fatalf("Send(echo-%s) error = %v", res.id, res.err)
		}
		if res.got != res.id {
			t.Errorf("caller %s received reply %q", res.id, res.got)
		}
	}
}

func TestSend_Timeout(t *testing.T) {
	fake := testutil.NewFakeGDB(func(token uint64, command string) []string {
		return nil // never reply
	})
	e := newTestEngine(t, fake, 150*time.Millisecond)

	start := time.Now()
	_, err := e.Send("hang")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Send error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took %v", elapsed)
	}

	// The pending table must be empty after the timeout.
	e.pendingMu.Lock()
	pending := len(e.pending)
	e.pendingMu.Unlock()
	if pending != 0 {
		t.Errorf("pending entries = %d, want 0", pending)
	}

	// A late-arriving reply is discarded silently.
	events := e.TakeEventReceiver()
	fake.Emit("1^done")
	select {
	case ev := <-events:
		t.Errorf("late reply surfaced as event %v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestStreamRecords_GoToEventsNotCallers(t *testing.T) {
	release := make(chan struct{})
	fake := testutil.NewFakeGDB(func(token uint64, command string) []string {
		<-release
		return []string{"^done"}
	})
	e := newTestEngine(t, fake, 5*time.Second)
	events := e.TakeEventReceiver()

	errc := make(chan error, 1)
	go func() {
		_, err := e.Send("slow-command")
		errc <- err
	}()

	fake.Emit(`~"interleaved output\n"`)
	ev := waitEvent(t, events, time.Second)
	out, ok := ev.(OutputEvent)
	if !ok {
		t.Fatalf("event = %T, want OutputEvent", ev)
	}
	if out.Channel != mi.StreamConsole || out.Content != "interleaved output\n" {
		t.Errorf("event = %+v", out)
	}

	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("Send error = %v", err)
	}
}

func TestInitialize_HandshakeOrder(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(nil))
	e := newTestEngine(t, fake, 2*time.Second)

	if err := e.initialize(); err != nil {
		t.Fatalf("initialize error = %v", err)
	}

	want := []string{
		"gdb-set mi-async on",
		"gdb-set pagination off",
		"gdb-set confirm off",
	}
	got := fake.Commands()
	if len(got) != len(want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBreakInsert_AndNotification(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(map[string][]string{
		"break-insert": {`^done,bkpt={number="1",type="breakpoint",disp="keep",enabled="y",addr="0x400",func="main"}`},
	}))
	e := newTestEngine(t, fake, 2*time.Second)
	events := e.TakeEventReceiver()

	bp, err := e.BreakInsert("main", false, "")
	if err != nil {
		t.Fatalf("BreakInsert error = %v", err)
	}
	if bp.Number != "1" || bp.Func != "main" || !bp.Enabled {
		t.Errorf("breakpoint = %+v", bp)
	}

	fake.Emit(`=breakpoint-created,bkpt={number="1"}`)
	ev := waitEvent(t, events, time.Second)
	created, ok := ev.(BreakpointCreatedEvent)
	if !ok {
		t.Fatalf("event = %T, want BreakpointCreatedEvent", ev)
	}
	if created.Breakpoint.Number != "1" {
		t.Errorf("event breakpoint = %+v", created.Breakpoint)
	}
}

func TestRun_ThenStopped(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(map[string][]string{
		"exec-run": {"^running"},
	}))
	e := newTestEngine(t, fake, 2*time.Second)
	events := e.TakeEventReceiver()

	if err := e.Run(); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if !e.State().Running {
		t.Error("state.Running = false after ^running")
	}

	fake.Emit(`*stopped,reason="breakpoint-hit",thread-id="1",frame={level="0",addr="0x400",func="main"}`)

	ev := waitEvent(t, events, time.Second)
	stopped, ok := ev.(StoppedEvent)
	if !ok {
		t.Fatalf("event = %T, want StoppedEvent", ev)
	}
	if stopped.Reason != mi.StopBreakpointHit || stopped.ThreadID != "1" {
		t.Errorf("stopped = %+v", stopped)
	}
	if stopped.Frame == nil || stopped.Frame.Func != "main" {
		t.Errorf("stopped frame = %+v", stopped.Frame)
	}

	if err := e.WaitForStop(time.Second); err != nil {
		t.Errorf("WaitForStop error = %v", err)
	}
	state := e.State()
	if state.Running {
		t.Error("state.Running = true after *stopped")
	}
	if state.CurrentThread != "1" {
		t.Errorf("current thread = %q, want 1", state.CurrentThread)
	}
}

func TestWaitForStop_Timeout(t *testing.T) {
	e := New(Config{})
	e.state.update(func(s *SessionState) { s.Running = true })

	start := time.Now()
	err := e.WaitForStop(200 * time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("WaitForStop error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("WaitForStop took %v", elapsed)
	}
}

func TestCommandError_SurfacesMessage(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(map[string][]string{
		"break-insert": {`^error,msg="Function \"nope\" not defined."`},
	}))
	e := newTestEngine(t, fake, 2*time.Second)

	_, err := e.BreakInsert("nope", false, "")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error = %v, want CommandError", err)
	}
	if cmdErr.Msg != `Function "nope" not defined.` {
		t.Errorf("msg = %q", cmdErr.Msg)
	}
}

func TestEvaluate(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(map[string][]string{
		"data-evaluate-expression": {`^done,value="3"`},
	}))
	e := newTestEngine(t, fake, 2*time.Second)

	value, err := e.Evaluate("1+2")
	if err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	if value != "3" {
		t.Errorf("value = %q, want 3", value)
	}
}

func TestEvaluate_MissingValueIsProtocolError(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(map[string][]string{
		"data-evaluate-expression": {"^done"},
	}))
	e := newTestEngine(t, fake, 2*time.Second)

	_, err := e.Evaluate("1+2")
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error = %v, want ProtocolError", err)
	}
}

func TestUnexpectedClass_IsProtocolError(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(map[string][]string{
		"break-delete": {"^running"},
	}))
	e := newTestEngine(t, fake, 2*time.Second)

	err := e.BreakDelete("1")
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error = %v, want ProtocolError", err)
	}
}

func TestParseFailure_DoesNotKillPump(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(map[string][]string{
		"data-evaluate-expression": {`^done,value="7"`},
	}))
	e := newTestEngine(t, fake, 2*time.Second)
	events := e.TakeEventReceiver()

	fake.Emit(`=definitely-not-a-known-class,x="1"`)
	ev := waitEvent(t, events, time.Second)
	out, ok := ev.(OutputEvent)
	if !ok {
		t.Fatalf("event = %T, want OutputEvent", ev)
	}
	if out.Channel != mi.StreamConsole {
		t.Errorf("channel = %v, want console", out.Channel)
	}

	// The pump is still alive and serving replies.
	value, err := e.Evaluate("x")
	if err != nil || value != "7" {
		t.Errorf("Evaluate after parse failure = %q, %v", value, err)
	}
}

func TestStderr_ForwardedAsLogEvents(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(nil))
	e := newTestEngine(t, fake, 2*time.Second)
	events := e.TakeEventReceiver()

	fake.EmitStderr("warning: remote target hiccup")
	ev := waitEvent(t, events, time.Second)
	out, ok := ev.(OutputEvent)
	if !ok {
		t.Fatalf("event = %T, want OutputEvent", ev)
	}
	if out.Channel != mi.StreamLog || out.Content != "warning: remote target hiccup" {
		t.Errorf("event = %+v", out)
	}
}

func TestTakeEventReceiver_Once(t *testing.T) {
	e := New(Config{})
	if e.TakeEventReceiver() == nil {
		t.Fatal("first TakeEventReceiver = nil")
	}
	if e.TakeEventReceiver() != nil {
		t.Fatal("second TakeEventReceiver != nil")
	}
}

func TestStop_GracefulThenIdempotent(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(nil))
	e := newTestEngine(t, fake, 2*time.Second)
	e.cmd = exec.Command("true") // never started; Wait returns immediately

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop error = %v", err)
	}

	// The fake sees the graceful exit command and closes its output, which
	// terminates the reader.
	select {
	case <-fake.Done():
	case <-time.After(time.Second):
		t.Fatal("fake never saw gdb-exit")
	}
	commands := fake.Commands()
	if len(commands) == 0 || commands[len(commands)-1] != "-gdb-exit" {
		t.Errorf("commands = %v, want trailing -gdb-exit", commands)
	}

	select {
	case <-e.readerDone:
	case <-time.After(time.Second):
		t.Fatal("reader did not terminate")
	}

	state := e.State()
	if state.Connected || state.Running {
		t.Errorf("state after stop = %+v", state)
	}

	if err := e.Stop(); err != nil {
		t.Errorf("second Stop error = %v", err)
	}
}

func TestBrokenPipe_SubsequentCallsNotStarted(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(nil))
	e := newTestEngine(t, fake, 2*time.Second)

	// Kill the debugger's stdin so the next write hits a broken pipe.
	_ = fake.EngineStdin.Close()

	_, err := e.Send("break-list")
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("Send error = %v, want WriteError", err)
	}

	state := e.State()
	if state.Connected || state.Running {
		t.Errorf("state after broken pipe = %+v, want disconnected", state)
	}

	// The session is disconnected: subsequent calls fail the NotStarted gate
	// instead of retrying the dead pipe.
	if _, err := e.Send("break-list"); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Send after broken pipe = %v, want ErrNotStarted", err)
	}
	if err := e.SendAsync("break-list"); !errors.Is(err, ErrNotStarted) {
		t.Errorf("SendAsync after broken pipe = %v, want ErrNotStarted", err)
	}
}

func TestThreadSelect_UpdatesState(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(nil))
	e := newTestEngine(t, fake, 2*time.Second)

	if err := e.ThreadSelect("3"); err != nil {
		t.Fatalf("ThreadSelect error = %v", err)
	}
	if e.State().CurrentThread != "3" {
		t.Errorf("current thread = %q, want 3", e.State().CurrentThread)
	}
}

func TestStackSelectFrame_UpdatesState(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(nil))
	e := newTestEngine(t, fake, 2*time.Second)

	if err := e.StackSelectFrame(2); err != nil {
		t.Fatalf("StackSelectFrame error = %v", err)
	}
	frame := e.State().CurrentFrame
	if frame == nil || *frame != 2 {
		t.Errorf("current frame = %v, want 2", frame)
	}
}

func TestLoadExecutable_UpdatesState(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(nil))
	e := newTestEngine(t, fake, 2*time.Second)

	if err := e.LoadExecutable("/tmp/firmware.elf"); err != nil {
		t.Fatalf("LoadExecutable error = %v", err)
	}
	if e.State().Executable != "/tmp/firmware.elf" {
		t.Errorf("executable = %q", e.State().Executable)
	}
}

func TestTargetConnect_AcceptsConnectedClass(t *testing.T) {
	fake := testutil.NewFakeGDB(testutil.ScriptedReplies(map[string][]string{
		"target-select": {"^connected"},
	}))
	e := newTestEngine(t, fake, 2*time.Second)

	if err := e.TargetConnectRemote(TCPTarget("localhost", 3333)); err != nil {
		t.Fatalf("TargetConnectRemote error = %v", err)
	}
	if !e.State().TargetRemote {
		t.Error("target_remote = false")
	}
}
