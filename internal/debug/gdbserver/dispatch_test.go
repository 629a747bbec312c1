package gdbserver

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/ngdevkit/emudbg/internal/debug/emulator"
	"github.com/ngdevkit/emudbg/internal/debug/emulator/mock_emulator"
)

func flatTarget(t *testing.T) *emulator.Flat {
	t.Helper()
	flat, err := emulator.NewFlat(emulator.DefaultFlatConfig)
	if err != nil {
		t.Fatal(err)
	}
	return flat
}

func newFlatSession(t *testing.T, opts Options) (*Session, *emulator.Flat) {
	t.Helper()
	flat := flatTarget(t)
	s, err := NewSession(flat, opts)
	if err != nil {
		t.Fatal(err)
	}
	return s, flat
}

func newMockSession(t *testing.T) (*Session, *mock_emulator.MockTarget) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := mock_emulator.NewMockTarget(ctrl)
	s, err := NewSession(m, DefaultOptions)
	if err != nil {
		t.Fatal(err)
	}
	return s, m
}

func TestDispatch_FixedReplies(t *testing.T) {
	s, _ := newFlatSession(t, DefaultOptions)
	cases := []struct {
		payload string
		want    string
	}{
		{"qSupported:multiprocess+;swbreak+;hwbreak+", "PacketSize=768"},
		{"qTStatus", "T0"},
		{"qTfV", "l"},
		{"qTsV", "l"},
		{"qTfP", "l"},
		{"qTsP", "l"},
		{"qfThreadInfo", "m0"},
		{"qsThreadInfo", "l"},
		{"qAttached", "1"},
		{"qAttached:1", "1"},
		{"qC", "QC0"},
		{"qOffsets", "TextSeg=00000000"},
		{"qSymbol::", "OK"},
		{"?", "S05"},
		{"vCont?", "vCont;c;C;s;S;t;r"},
		{"Hg0", "OK"},
		{"Hc-1", "OK"},
	}
	for _, c := range cases {
		var next RunCommand
		res := s.Dispatch(c.payload, &next)
		if res.Kind != ResultReply || res.Resume {
			t.Fatalf("%q: expected plain reply, got %+v", c.payload, res)
		}
		if res.Payload != c.want {
			t.Fatalf("%q: expected %q, got %q", c.payload, c.want, res.Payload)
		}
		if next.Action != ActionNone {
			t.Fatalf("%q: run command touched: %v", c.payload, next)
		}
	}
}

func TestDispatch_UnknownCommandsGetBareAck(t *testing.T) {
	s, _ := newFlatSession(t, DefaultOptions)
	for _, p := range []string{"qXfer:features:read:target.xml:0,fff", "vMustReplyEmpty", "k", "X1000,0:", "qSymbol:6d61696e", "vContX", ""} {
		if res := s.Dispatch(p, nil); res.Kind != ResultAck {
			t.Fatalf("%q: expected bare ack, got %+v", p, res)
		}
	}
}

func TestDispatch_PrefixOrdering(t *testing.T) {
	for i := 1; i < len(commands); i++ {
		if len(commands[i].prefix) > len(commands[i-1].prefix) {
			t.Fatalf("%q listed after shorter prefix %q", commands[i].prefix, commands[i-1].prefix)
		}
	}
	s, _ := newFlatSession(t, DefaultOptions)
	var next RunCommand
	if res := s.Dispatch("vCont?", &next); res.Kind != ResultReply || next.Action != ActionNone {
		t.Fatalf("vCont? must not resume: %+v %v", res, next)
	}
	// qsThreadInfo starts with a lower case q, not s
	if res := s.Dispatch("qsThreadInfo", &next); res.Payload != "l" || next.Action != ActionNone {
		t.Fatalf("qsThreadInfo misrouted: %+v %v", res, next)
	}
	if res := s.Dispatch("qC", &next); res.Payload != "QC0" {
		t.Fatalf("qC misrouted: %+v", res)
	}
}

func TestDispatch_ReadMemory(t *testing.T) {
	s, m := newMockSession(t)
	for a := uint32(0x1000); a < 0x1004; a++ {
		m.EXPECT().FetchByte(a).Return(uint8(0x41)).Times(1)
	}
	res := s.Dispatch("m1000,4", nil)
	if res.Kind != ResultReply || res.Payload != "41414141" {
		t.Fatalf("expected 41414141, got %+v", res)
	}
}

func TestDispatch_ReadMemoryCapped(t *testing.T) {
	s, flat := newFlatSession(t, DefaultOptions)
	if err := flat.Load(0x200, []byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatal(err)
	}
	if res := s.Dispatch("m200,8", nil); res.Payload != "01020304" {
		t.Fatalf("expected read capped to 4 bytes, got %q", res.Payload)
	}
	// length is decimal: 10 bytes, not 16
	opts := DefaultOptions
	opts.MaxMemoryRead = 64
	if err := s.SetOptions(opts); err != nil {
		t.Fatal(err)
	}
	if res := s.Dispatch("m200,10", nil); res.Payload != "01020304050607080000" {
		t.Fatalf("unexpected payload %q", res.Payload)
	}
	if res := s.Dispatch("m200,0", nil); res.Kind != ResultReply || res.Payload != "" {
		t.Fatalf("zero length read should reply empty, got %+v", res)
	}
}

func TestDispatch_Registers(t *testing.T) {
	s, flat := newFlatSession(t, DefaultOptions)
	flat.StoreRegister(0, 0xcafe)
	flat.StoreRegister(17, 0xc00402)

	if res := s.Dispatch("g", nil); res.Payload != "0000cafe" {
		t.Fatalf("g: expected register 0 only, got %q", res.Payload)
	}
	if res := s.Dispatch("p11", nil); res.Payload != "00c00402" {
		t.Fatalf("p11: expected pc, got %q", res.Payload)
	}
	if res := s.Dispatch("P3=deadbeef", nil); res.Payload != "OK" {
		t.Fatalf("P3: expected OK, got %q", res.Payload)
	}
	if got := flat.FetchRegister(3); got != 0xdeadbeef {
		t.Fatalf("register 3 not written: %#x", got)
	}
}

func TestDispatch_WriteMemory(t *testing.T) {
	s, flat := newFlatSession(t, DefaultOptions)
	if res := s.Dispatch("M10,4:01020304", nil); res.Payload != "OK" {
		t.Fatalf("expected OK, got %q", res.Payload)
	}
	for i, want := range []uint8{1, 2, 3, 4} {
		if got := flat.FetchByte(0x10 + uint32(i)); got != want {
			t.Fatalf("byte %d: got %#x want %#x", i, got, want)
		}
	}
	if res := s.Dispatch("M10,3:0102", nil); res.Payload != "E02" {
		t.Fatalf("length mismatch should reply E02, got %q", res.Payload)
	}
}

func TestDispatch_MalformedNumbers(t *testing.T) {
	s, _ := newMockSession(t) // any target call fails the test
	for _, p := range []string{"mzz,4", "m1000", "m1000,x", "m1000,-1", "p", "pxyz", "P3", "P3=zz", "Z0", "Z0,", "Z0,qq,2", "z0;1000", "M10:00", "M10,1:zz", "vCont;", "vCont;r1000", "vCont;r1000,zz"} {
		res := s.Dispatch(p, nil)
		if res.Kind != ResultReply || res.Payload != "E01" {
			t.Fatalf("%q: expected E01, got %+v", p, res)
		}
	}
}

func TestDispatch_Breakpoints(t *testing.T) {
	s, m := newMockSession(t)
	m.EXPECT().AddBreakpoint(uint32(0x1000)).Times(1)
	m.EXPECT().DelBreakpoint(uint32(0xc00402)).Times(1)

	if res := s.Dispatch("Z0,1000,1", nil); res.Kind != ResultReply || res.Payload != "OK" {
		t.Fatalf("Z0: expected OK, got %+v", res)
	}
	if res := s.Dispatch("z0,c00402,2", nil); res.Payload != "OK" {
		t.Fatalf("z0: expected OK, got %+v", res)
	}
	for _, p := range []string{"Z1,1000,1", "Z2,1000,4", "z1,1000,1", "z4,1000,4"} {
		if res := s.Dispatch(p, nil); res.Kind != ResultReply || res.Payload != "" {
			t.Fatalf("%q: expected empty reply, got %+v", p, res)
		}
	}
}

func TestDispatch_Resume(t *testing.T) {
	s, flat := newFlatSession(t, DefaultOptions)
	cases := []struct {
		payload string
		want    RunCommand
	}{
		{"c", RunCommand{Action: ActionContinue}},
		{"s", RunCommand{Action: ActionStep}},
		{"vCont;c", RunCommand{Action: ActionContinue}},
		{"vCont;s:0", RunCommand{Action: ActionStep}},
		{"vCont;r1000,2000", RunCommand{Action: ActionStepRange, RangeMin: 0x1000, RangeMax: 0x2000}},
		{"vCont;r1000,2000:0;c", RunCommand{Action: ActionStepRange, RangeMin: 0x1000, RangeMax: 0x2000}},
		{"vCont;s:1;c", RunCommand{Action: ActionContinue}},
		{"vCont;s:1", RunCommand{Action: ActionStep}},
		{"vCont;C05", RunCommand{Action: 'C'}},
		{"vCont;t", RunCommand{Action: ActionStop}},
	}
	for _, c := range cases {
		next := RunCommand{Action: 'x', RangeMin: 1, RangeMax: 2}
		res := s.Dispatch(c.payload, &next)
		if res.Kind != ResultResume {
			t.Fatalf("%q: expected resume, got %+v", c.payload, res)
		}
		if next != c.want {
			t.Fatalf("%q: expected %v, got %v", c.payload, c.want, next)
		}
	}

	flat.AddBreakpoint(0x400)
	var next RunCommand
	res := s.Dispatch("D", &next)
	if res.Kind != ResultReply || res.Payload != "OK" || !res.Resume {
		t.Fatalf("D: expected OK reply with resume, got %+v", res)
	}
	if next.Action != ActionDetach {
		t.Fatalf("D: expected detach, got %v", next)
	}
	if len(flat.Breakpoints()) != 0 {
		t.Fatalf("D: breakpoints survived detach")
	}
}

type recordingLogger struct{ lines []string }

func (l *recordingLogger) Info(format string, args ...interface{}) {}
func (l *recordingLogger) Debug(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func TestDispatch_UnsupportedBreakpointLogged(t *testing.T) {
	log := &recordingLogger{}
	opts := DefaultOptions
	opts.Logger = log
	s, _ := newFlatSession(t, opts)
	if res := s.Dispatch("Z2,1000,4", nil); res.Payload != "" {
		t.Fatalf("expected empty reply, got %+v", res)
	}
	if len(log.lines) != 1 || !strings.Contains(log.lines[0], "[UNSUPPORTED:UNSUPPORTED_FEATURE]") {
		t.Fatalf("expected an unsupported feature trace, got %q", log.lines)
	}
}
