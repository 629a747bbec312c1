package gdbserver

import (
	"sort"
	"strings"
)

// ResultKind tells the server loop what to do with a handler's outcome.
type ResultKind int

const (
	// ResultReply frames Payload, sends it and waits for the client ack.
	ResultReply ResultKind = iota
	// ResultResume sends nothing and ends the loop.
	ResultResume
	// ResultAck sends a bare '+' for commands the server does not know.
	ResultAck
)

// Result is the outcome of dispatching one command payload. A ResultReply
// with Resume set ends the loop once the reply has been acknowledged.
type Result struct {
	Kind    ResultKind
	Payload string
	Resume  bool
}

func reply(payload string) Result { return Result{Kind: ResultReply, Payload: payload} }

var (
	resumeResult      = Result{Kind: ResultResume}
	unknownResult     = Result{Kind: ResultAck}
	unsupportedResult = reply("")
	errorResult       = reply("E01")
	lengthErrorResult = reply("E02")
)

type handlerFunc func(s *Session, pkt string) Result

type command struct {
	prefix string
	handle handlerFunc
}

func static(payload string) handlerFunc {
	return func(*Session, string) Result { return reply(payload) }
}

// commands is matched in order, longest prefix first, so that e.g. "vCont?"
// never reaches a shorter rule and "qSymbol::" wins over anything under "q".
var commands = []command{
	{"qSupported:", static("PacketSize=768")},
	{"qTStatus", static("T0")},
	{"qTfV", static("l")},
	{"qTsV", static("l")},
	{"qTfP", static("l")},
	{"qTsP", static("l")},
	{"qfThreadInfo", static("m0")},
	{"qsThreadInfo", static("l")},
	{"qAttached", static("1")},
	{"qC", static("QC0")},
	{"qOffsets", static("TextSeg=00000000")},
	{"qSymbol::", static("OK")},
	{"?", static(stopReply)},
	{"vCont?", static("vCont;c;C;s;S;t;r")},
	{"vCont;", (*Session).handleVCont},
	{"H", static("OK")},
	{"g", (*Session).handleReadRegisters},
	{"p", (*Session).handleReadRegister},
	{"P", (*Session).handleWriteRegister},
	{"m", (*Session).handleReadMemory},
	{"M", (*Session).handleWriteMemory},
	{"Z", (*Session).handleInsertBreakpoint},
	{"z", (*Session).handleRemoveBreakpoint},
	{"c", (*Session).handleContinue},
	{"s", (*Session).handleStep},
	{"D", (*Session).handleDetach},
}

func init() {
	sort.SliceStable(commands, func(i, j int) bool {
		return len(commands[i].prefix) > len(commands[j].prefix)
	})
}

// Dispatch runs the handler matching payload. Resume handlers write into next.
func (s *Session) Dispatch(payload string, next *RunCommand) Result {
	if next == nil {
		next = &RunCommand{}
	}
	s.next = next
	defer func() { s.next = nil }()

	for _, c := range commands {
		if strings.HasPrefix(payload, c.prefix) {
			return c.handle(s, payload)
		}
	}
	s.log.Debug("unsupported command %q", payload)
	return unknownResult
}

func (s *Session) resume(cmd RunCommand) Result {
	*s.next = cmd
	return resumeResult
}
