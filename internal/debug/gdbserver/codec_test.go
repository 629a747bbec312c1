package gdbserver

import (
	"errors"
	"testing"

	emuerrors "github.com/ngdevkit/emudbg/internal/errors"
)

func TestEncodePacket_Checksum(t *testing.T) {
	if got := string(EncodePacket("OK")); got != "$OK#9a" {
		t.Fatalf("expected $OK#9a, got %q", got)
	}
	if got := string(EncodePacket("")); got != "$#00" {
		t.Fatalf("expected $#00 for empty payload, got %q", got)
	}
	if got := string(EncodePacket("S05")); got != "$S05#b8" {
		t.Fatalf("expected $S05#b8, got %q", got)
	}
}

func TestEncodePacket_ExactLength(t *testing.T) {
	for _, p := range []string{"", "l", "PacketSize=768", "vCont;c;C;s;S;t;r"} {
		if got := len(EncodePacket(p)); got != len(p)+4 {
			t.Fatalf("%q: frame length %d, want %d", p, got, len(p)+4)
		}
	}
}

func TestDecodePacket_RoundTrip(t *testing.T) {
	payloads := []string{"", "OK", "qSupported:multiprocess+;swbreak+", "m1000,4", "vCont;r1000,2000", "Z0,c0ffee,2"}
	for _, p := range payloads {
		got, err := DecodePacket(EncodePacket(p), true)
		if err != nil {
			t.Fatalf("%q: %v", p, err)
		}
		if string(got) != p {
			t.Fatalf("round trip mismatch: %q -> %q", p, got)
		}
	}
}

func TestDecodePacket_Preamble(t *testing.T) {
	got, err := DecodePacket([]byte("\x03+$?#3f"), true)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "?" {
		t.Fatalf("expected '?', got %q", got)
	}
}

func TestDecodePacket_Checksum(t *testing.T) {
	bad := []byte("$g#00")
	if _, err := DecodePacket(bad, true); !errors.Is(err, emuerrors.ErrChecksumMismatch) {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
	got, err := DecodePacket(bad, false)
	if err != nil || string(got) != "g" {
		t.Fatalf("permissive decode should accept bad checksum: %q %v", got, err)
	}
	if _, err := DecodePacket([]byte("$g#zz"), true); !errors.Is(err, emuerrors.ErrInvalidField) {
		t.Fatalf("expected invalid checksum digits, got %v", err)
	}
}

func TestDecodePacket_Malformed(t *testing.T) {
	for _, in := range []string{"", "$#0", "g#67", "$g;67", "+"} {
		if _, err := DecodePacket([]byte(in), false); !errors.Is(err, emuerrors.ErrMalformedPacket) {
			t.Fatalf("%q: expected malformed packet, got %v", in, err)
		}
	}
}

func TestSkipPreamble(t *testing.T) {
	cases := map[string]int{
		"":       0,
		"\x03":   1,
		"+":      1,
		"\x03+":  2,
		"\x03+$": 2,
		"+\x03$": 2,
		"++\x03": 3,
		"$g#67":  0,
		"\x03$g": 1,
	}
	for in, want := range cases {
		if got := skipPreamble([]byte(in)); got != want {
			t.Fatalf("%q: got %d, want %d", in, got, want)
		}
	}
}
