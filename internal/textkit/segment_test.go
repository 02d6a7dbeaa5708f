package textkit

import "testing"

func TestSegmenterStats(t *testing.T) {
	seg, err := NewSegmenter()
	if err != nil {
		t.Fatalf("failed to build segmenter: %v", err)
	}

	tests := []struct {
		name      string
		text      string
		wantSegs  int
		wantChars int
	}{
		{
			name:      "empty input",
			text:      "",
			wantSegs:  0,
			wantChars: 0,
		},
		{
			name:      "whitespace only",
			text:      "   \n\t ",
			wantSegs:  0,
			wantChars: 0,
		},
		{
			name:      "latin words",
			text:      "hello world",
			wantSegs:  2,
			wantChars: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seg.Stats(tt.text)
			if got.Segments != tt.wantSegs {
				t.Errorf("Stats(%q).Segments = %d, want %d", tt.text, got.Segments, tt.wantSegs)
			}
			if got.Characters != tt.wantChars {
				t.Errorf("Stats(%q).Characters = %d, want %d", tt.text, got.Characters, tt.wantChars)
			}
		})
	}
}

func TestSegmenterStatsCJK(t *testing.T) {
	seg, err := NewSegmenter()
	if err != nil {
		t.Fatalf("failed to build segmenter: %v", err)
	}

	// Unsegmented Japanese must yield more than one word-like segment.
	got := seg.Stats("私は学生です")
	if got.Segments < 2 {
		t.Errorf("Stats() segments = %d, want at least 2", got.Segments)
	}
	if got.Characters != 6 {
		t.Errorf("Stats() characters = %d, want 6", got.Characters)
	}
}
