package util

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{input: "", expected: 0},
		{input: "512", expected: 512},
		{input: "100B", expected: 100},
		{input: "1K", expected: 1024},
		{input: "1.5KiB", expected: 1536},
		{input: "10M", expected: 10 * 1024 * 1024},
		{input: "2g", expected: 2 * 1024 * 1024 * 1024},
		{input: " 4MB ", expected: 4 * 1024 * 1024},
		{input: "lots", wantErr: true},
		{input: "3Q", wantErr: true},
		{input: "-1M", wantErr: true},
		{input: "1e30G", wantErr: true},
		{input: "9223372036854775808", wantErr: true},
		{input: "8589934592G", wantErr: true},
		{input: "NaN", wantErr: true},
		{input: "Inf", wantErr: true},
		{input: "8589934591G", expected: 8589934591 * 1024 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSize(%q) expected error, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSize(%q): %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}
