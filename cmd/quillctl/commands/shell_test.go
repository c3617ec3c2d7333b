package commands

import (
	"bufio"
	"io"
	"strings"
	"testing"
)

func TestLineReader_LockStepWithScanner(t *testing.T) {
	outer := bufio.NewScanner(strings.NewReader("first\nsecond\nthird\n"))
	r := &lineReader{scanner: outer}

	// A scanner layered on the reader consumes exactly one line per token,
	// so the outer scanner can take over between reads.
	inner := bufio.NewScanner(r)
	if !inner.Scan() || inner.Text() != "first" {
		t.Fatalf("inner.Scan() = %q, want %q", inner.Text(), "first")
	}

	if !outer.Scan() || outer.Text() != "second" {
		t.Fatalf("outer.Scan() = %q, want %q", outer.Text(), "second")
	}

	if !inner.Scan() || inner.Text() != "third" {
		t.Fatalf("inner.Scan() = %q, want %q", inner.Text(), "third")
	}

	if inner.Scan() {
		t.Errorf("inner.Scan() = true after input exhausted")
	}
}

func TestLineReader_EOF(t *testing.T) {
	r := &lineReader{scanner: bufio.NewScanner(strings.NewReader(""))}

	buf := make([]byte, 16)
	n, err := r.Read(buf)
	if n != 0 || err != io.EOF {
		t.Errorf("Read() = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestLineReader_SmallBuffer(t *testing.T) {
	r := &lineReader{scanner: bufio.NewScanner(strings.NewReader("0 hello world\n"))}

	var got []byte
	buf := make([]byte, 4)
	for {
		n, err := r.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}

	if string(got) != "0 hello world\n" {
		t.Errorf("Read() assembled %q, want %q", string(got), "0 hello world\n")
	}
}
