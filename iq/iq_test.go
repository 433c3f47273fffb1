package iq

import (
	"bytes"
	"testing"
)

func TestCU8SourceDecodesAndNormalises(t *testing.T) {
	// 128,128 -> 0,0 ; 0,255 -> -1, 0.9921875
	raw := []byte{128, 128, 0, 255}
	src := NewCU8Source(bytes.NewReader(raw))

	s, ok, err := src.Next()
	if err != nil || !ok {
		t.Fatalf("Next() = %v, %v, %v", s, ok, err)
	}
	if real(s) != 0 || imag(s) != 0 {
		t.Fatalf("first sample = %v, want 0+0i", s)
	}

	s, ok, err = src.Next()
	if err != nil || !ok {
		t.Fatalf("Next() = %v, %v, %v", s, ok, err)
	}
	if real(s) != -1 {
		t.Fatalf("second sample re = %v, want -1", real(s))
	}

	_, ok, err = src.Next()
	if err != nil || ok {
		t.Fatalf("expected clean EOF, got ok=%v err=%v", ok, err)
	}
}

func TestCU8SourceIgnoresTrailingOddByte(t *testing.T) {
	raw := []byte{128, 128, 200}
	src := NewCU8Source(bytes.NewReader(raw))

	_, ok, err := src.Next()
	if err != nil || !ok {
		t.Fatalf("first Next() failed: %v %v", ok, err)
	}

	_, ok, err = src.Next()
	if err != nil {
		t.Fatalf("trailing odd byte should not be an error, got %v", err)
	}
	if ok {
		t.Fatalf("trailing odd byte should not yield a sample")
	}
}

func TestF32RoundTrip(t *testing.T) {
	want := []float32{0, 1, -1, 0.5, -0.5, 3.14159}

	var buf bytes.Buffer
	if err := WriteF32(&buf, want); err != nil {
		t.Fatalf("WriteF32: %v", err)
	}

	got, err := ReadF32(&buf)
	if err != nil {
		t.Fatalf("ReadF32: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEmptyCU8SourceIsCleanEOF(t *testing.T) {
	src := NewCU8Source(bytes.NewReader(nil))
	_, ok, err := src.Next()
	if err != nil || ok {
		t.Fatalf("empty source: ok=%v err=%v, want ok=false err=nil", ok, err)
	}
}
