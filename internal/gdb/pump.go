package gdb

import (
	"bufio"
	"io"

	"github.com/HyphaGroup/inquisitor/internal/logger"
	"github.com/HyphaGroup/inquisitor/internal/metrics"
	"github.com/HyphaGroup/inquisitor/internal/mi"
)

const maxScanTokenSize = 1024 * 1024

// readLoop is the stdout pump: the sole reader of the debugger's stdout. It
// parses each line, routes tokened results to pending callers and everything
// else to handleAsync, which publishes the records that have an event type
// (untokened results and other notification classes publish nothing). It
// exits on EOF; a parse failure never kills it.
func (e *Engine) readLoop(r io.Reader) {
	defer close(e.readerDone)

	scanner := bufio.NewScanner(r)
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	for scanner.Scan() {
		line := scanner.Text()

		record, err := mi.ParseLine(line)
		if err != nil {
			metrics.RecordParseFailure()
			logger.Error("unparseable MI line %q: %v", line, err)
			e.publish(OutputEvent{Channel: mi.StreamConsole, Content: line})
			continue
		}
		if record == nil {
			continue
		}

		if result, ok := record.(mi.ResultRecord); ok && result.Token != 0 {
			e.deliver(result)
			continue
		}

		e.handleAsync(record)
	}

	if err := scanner.Err(); err != nil {
		logger.Error("gdb stdout reader: %v", err)
		e.publish(ErrorEvent{Message: err.Error()})
	}
	logger.Info("gdb output reader stopped")
}

// handleAsync decodes non-reply records, applies their state mutations and
// publishes the corresponding events. State is updated before the event is
// delivered.
func (e *Engine) handleAsync(record mi.Record) {
	switch rec := record.(type) {
	case mi.ExecAsyncRecord:
		threadID, _ := mi.FindString(rec.Results, "thread-id")
		switch rec.Class {
		case mi.AsyncStopped:
			reason, ok := mi.FindString(rec.Results, "reason")
			if !ok {
				reason = "unknown"
			}
			e.state.update(func(s *SessionState) {
				s.Running = false
				s.CurrentThread = threadID
			})
			e.publish(StoppedEvent{
				Reason:   mi.StopReason(reason),
				Frame:    mi.DecodeFrame(rec.Results),
				ThreadID: threadID,
			})
		case mi.AsyncRunning:
			e.state.update(func(s *SessionState) { s.Running = true })
			e.publish(RunningEvent{ThreadID: threadID})
		}

	case mi.NotificationRecord:
		switch rec.Class {
		case mi.NotifyBreakpointCreated:
			if bp := mi.DecodeBreakpoint(rec.Results); bp != nil {
				e.publish(BreakpointCreatedEvent{Breakpoint: *bp})
			}
		case mi.NotifyBreakpointModified:
			if bp := mi.DecodeBreakpoint(rec.Results); bp != nil {
				e.publish(BreakpointModifiedEvent{Breakpoint: *bp})
			}
		case mi.NotifyBreakpointDeleted:
			if number, ok := mi.FindString(rec.Results, "number"); ok {
				e.publish(BreakpointDeletedEvent{Number: number})
			}
		case mi.NotifyThreadCreated:
			id, okID := mi.FindString(rec.Results, "id")
			groupID, okGroup := mi.FindString(rec.Results, "group-id")
			if okID && okGroup {
				e.publish(ThreadCreatedEvent{ID: id, GroupID: groupID})
			}
		case mi.NotifyThreadExited:
			id, okID := mi.FindString(rec.Results, "id")
			groupID, okGroup := mi.FindString(rec.Results, "group-id")
			if okID && okGroup {
				e.publish(ThreadExitedEvent{ID: id, GroupID: groupID})
			}
		case mi.NotifyThreadSelected:
			if id, ok := mi.FindString(rec.Results, "id"); ok {
				e.state.update(func(s *SessionState) { s.CurrentThread = id })
				e.publish(ThreadSelectedEvent{ID: id})
			}
		}

	case mi.StreamRecord:
		e.publish(OutputEvent{Channel: rec.Channel, Content: rec.Text})
	}
}

// drainStderr forwards the debugger's stderr as log-channel events.
func (e *Engine) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		e.publish(OutputEvent{Channel: mi.StreamLog, Content: scanner.Text()})
	}
}
