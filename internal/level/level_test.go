package level

import (
	"testing"
)

func TestLevel_Order(t *testing.T) {
	if !(None < Partial && Partial < Full) {
		t.Fatalf("levels are not totally ordered: none=%d partial=%d full=%d", None, Partial, Full)
	}
	if Bottom != None {
		t.Errorf("Bottom = %s, want none", Bottom)
	}
	if Max != Full {
		t.Errorf("Max = %s, want full", Max)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"none", None, false},
		{"NONE", None, false},
		{"partial", Partial, false},
		{"dummy", Partial, false},
		{" Full ", Full, false},
		{"resolved", None, true},
		{"", None, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromOrdinal(t *testing.T) {
	for _, l := range []Level{None, Partial, Full} {
		got, err := FromOrdinal(l.Ordinal())
		if err != nil {
			t.Fatalf("FromOrdinal(%d): %v", l.Ordinal(), err)
		}
		if got != l {
			t.Errorf("FromOrdinal(%d) = %s, want %s", l.Ordinal(), got, l)
		}
	}

	for _, n := range []int{-1, 3, 256, 1 << 20} {
		if _, err := FromOrdinal(n); err == nil {
			t.Errorf("FromOrdinal(%d) expected error", n)
		}
	}
}

func TestLevel_String(t *testing.T) {
	if got := Level(7).String(); got != "level(7)" {
		t.Errorf("String() = %q", got)
	}
	if Level(7).Valid() {
		t.Error("Level(7) should not be valid")
	}
}

func TestLevel_TextRoundTrip(t *testing.T) {
	var l Level
	if err := l.UnmarshalText([]byte("dummy")); err != nil {
		t.Fatal(err)
	}
	text, err := l.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "partial" {
		t.Errorf("MarshalText() = %q, want partial", text)
	}
	if _, err := Level(9).MarshalText(); err == nil {
		t.Error("MarshalText of invalid level should fail")
	}
}
