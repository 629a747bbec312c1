package gdbserver

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	emuerrors "github.com/ngdevkit/emudbg/internal/errors"
)

const stopReply = "S05"

// g: only register 0 is returned, GDB reads the others one by one with p.
func (s *Session) handleReadRegisters(pkt string) Result {
	return reply(fmt.Sprintf("%08x", s.target.FetchRegister(0)))
}

// p n
func (s *Session) handleReadRegister(pkt string) Result {
	reg, err := parseHex32("register", pkt[1:])
	if err != nil {
		s.log.Debug("%v", err)
		return errorResult
	}
	return reply(fmt.Sprintf("%08x", s.target.FetchRegister(reg)))
}

// P n=value
func (s *Session) handleWriteRegister(pkt string) Result {
	regStr, valStr, ok := strings.Cut(pkt[1:], "=")
	if !ok {
		return errorResult
	}
	reg, err := parseHex32("register", regStr)
	if err != nil {
		s.log.Debug("%v", err)
		return errorResult
	}
	val, err := parseHex32("register value", valStr)
	if err != nil {
		s.log.Debug("%v", err)
		return errorResult
	}
	s.target.StoreRegister(reg, val)
	return reply("OK")
}

// m addr,length with a hex address and a decimal length. Reads are capped to
// MaxMemoryRead bytes; GDB asks again for whatever is missing.
func (s *Session) handleReadMemory(pkt string) Result {
	addrStr, lenStr, ok := strings.Cut(pkt[1:], ",")
	if !ok {
		return errorResult
	}
	addr, err := parseHex32("address", addrStr)
	if err != nil {
		s.log.Debug("%v", err)
		return errorResult
	}
	n, err := parseDec32("length", lenStr)
	if err != nil {
		s.log.Debug("%v", err)
		return errorResult
	}
	if limit := uint32(s.opts.MaxMemoryRead); n > limit {
		s.log.Debug("memory read of %d bytes at %#x truncated to %d", n, addr, limit)
		n = limit
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = s.target.FetchByte(addr + uint32(i))
	}
	return reply(hex.EncodeToString(buf))
}

// M addr,length:data
func (s *Session) handleWriteMemory(pkt string) Result {
	hdr, data, ok := strings.Cut(pkt[1:], ":")
	if !ok {
		return errorResult
	}
	addrStr, lenStr, ok := strings.Cut(hdr, ",")
	if !ok {
		return errorResult
	}
	addr, err := parseHex32("address", addrStr)
	if err != nil {
		s.log.Debug("%v", err)
		return errorResult
	}
	n, err := parseHex32("length", lenStr)
	if err != nil {
		s.log.Debug("%v", err)
		return errorResult
	}
	bin, err := hex.DecodeString(data)
	if err != nil {
		s.log.Debug("invalid memory data %q: %v", data, err)
		return errorResult
	}
	if uint32(len(bin)) != n {
		return lengthErrorResult
	}
	for i, b := range bin {
		s.target.StoreByte(addr+uint32(i), b)
	}
	return reply("OK")
}

// Z type,addr,kind
func (s *Session) handleInsertBreakpoint(pkt string) Result {
	addr, res, ok := s.parseBreakpoint(pkt)
	if !ok {
		return res
	}
	s.target.AddBreakpoint(addr)
	return reply("OK")
}

// z type,addr,kind
func (s *Session) handleRemoveBreakpoint(pkt string) Result {
	addr, res, ok := s.parseBreakpoint(pkt)
	if !ok {
		return res
	}
	s.target.DelBreakpoint(addr)
	return reply("OK")
}

// parseBreakpoint accepts software breakpoints only. Other types answer with
// an empty packet, which GDB reads as "not supported".
func (s *Session) parseBreakpoint(pkt string) (uint32, Result, bool) {
	if len(pkt) < 2 {
		return 0, errorResult, false
	}
	if pkt[1] != '0' {
		s.log.Debug("%v", emuerrors.Unsupported("breakpoint type", pkt[1:2]))
		return 0, unsupportedResult, false
	}
	rest, ok := strings.CutPrefix(pkt[2:], ",")
	if !ok {
		return 0, errorResult, false
	}
	addrStr, _, _ := strings.Cut(rest, ",")
	addr, err := parseHex32("breakpoint address", addrStr)
	if err != nil {
		s.log.Debug("%v", err)
		return 0, errorResult, false
	}
	return addr, Result{}, true
}

func (s *Session) handleContinue(pkt string) Result {
	return s.resume(RunCommand{Action: ActionContinue})
}

func (s *Session) handleStep(pkt string) Result {
	return s.resume(RunCommand{Action: ActionStep})
}

// vCont;action[:thread-id][;action[:thread-id]]...
//
// Only thread 0 exists. The first action without a thread-id or aimed at
// thread 0 is used, otherwise the first action listed.
func (s *Session) handleVCont(pkt string) Result {
	actions := strings.Split(strings.TrimPrefix(pkt, "vCont;"), ";")
	chosen := ""
	for _, a := range actions {
		act, tid, hasTid := strings.Cut(a, ":")
		if act == "" {
			continue
		}
		if !hasTid || tid == "0" {
			chosen = act
			break
		}
		if chosen == "" {
			chosen = act
		}
	}
	if chosen == "" {
		return errorResult
	}

	cmd := RunCommand{Action: Action(chosen[0])}
	if cmd.Action == ActionStepRange {
		minStr, maxStr, ok := strings.Cut(chosen[1:], ",")
		if !ok {
			return errorResult
		}
		lo, err := parseHex32("range start", minStr)
		if err != nil {
			s.log.Debug("%v", err)
			return errorResult
		}
		hi, err := parseHex32("range end", maxStr)
		if err != nil {
			s.log.Debug("%v", err)
			return errorResult
		}
		cmd.RangeMin, cmd.RangeMax = lo, hi
	}
	return s.resume(cmd)
}

// D detaches. Breakpoints are dropped so the target runs freely afterwards.
func (s *Session) handleDetach(pkt string) Result {
	s.target.ClearBreakpoints()
	*s.next = RunCommand{Action: ActionDetach}
	return Result{Kind: ResultReply, Payload: "OK", Resume: true}
}

func parseHex32(field, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, emuerrors.InvalidField(field, s, err)
	}
	return uint32(v), nil
}

func parseDec32(field, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, emuerrors.InvalidField(field, s, err)
	}
	return uint32(v), nil
}
