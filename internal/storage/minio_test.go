package storage

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestCappedReaderAllowsStreamWithinLimit(t *testing.T) {
	r := &cappedReader{r: strings.NewReader("small recording"), remaining: 64}

	data, err := io.ReadAll(r)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "small recording" {
		t.Errorf("got %q", data)
	}
}

func TestCappedReaderFailsPastLimit(t *testing.T) {
	payload := bytes.Repeat([]byte("a"), 100)
	r := &cappedReader{r: bytes.NewReader(payload), remaining: 64}

	_, err := io.ReadAll(r)

	if err == nil {
		t.Fatal("expected error for stream exceeding the limit")
	}
	if !strings.Contains(err.Error(), "size limit") {
		t.Errorf("unexpected error: %v", err)
	}
}
