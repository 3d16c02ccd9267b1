package speech

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestCleanTranscription(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  double the recipe  ", "double the recipe"},
		{"[BLANK_AUDIO]", ""},
		{"(silence)", ""},
		{"make it vegan (typing)", "make it vegan"},
		{"(dog barking) next step", "next step"},
		{"[laughter] skip this one", "skip this one"},
		{"Thank you.", ""},
		{"you", ""},
		{"...", ""},
		{"line one\nline two", "line one line two"},
		{"[00:00:00.000 --> 00:00:02.000] halve it", "halve it"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := cleanTranscription(tc.in); got != tc.want {
			t.Errorf("cleanTranscription(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// buildWAV assembles a minimal RIFF container around the given PCM bytes.
func buildWAV(t *testing.T, pcm []byte, extraChunk bool) []byte {
	t.Helper()
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(0)) // size, unchecked
	b.WriteString("WAVE")

	if extraChunk {
		b.WriteString("fmt ")
		binary.Write(&b, binary.LittleEndian, uint32(16))
		b.Write(make([]byte, 16))
	}

	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}

func TestExtractPCM(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}

	got, err := extractPCM(buildWAV(t, pcm, false))
	if err != nil {
		t.Fatalf("extractPCM: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Fatalf("got %v, want %v", got, pcm)
	}

	// data chunk after a fmt chunk.
	got, err = extractPCM(buildWAV(t, pcm, true))
	if err != nil {
		t.Fatalf("extractPCM with fmt chunk: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Fatalf("got %v, want %v", got, pcm)
	}
}

func TestExtractPCMRejectsGarbage(t *testing.T) {
	for _, in := range [][]byte{nil, []byte("short"), []byte("not a wav file at all")} {
		if _, err := extractPCM(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}
