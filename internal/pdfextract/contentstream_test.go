// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentText(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name:   "simple Tj",
			stream: "BT /F1 12 Tf 72 720 Td (Hello world) Tj ET",
			want:   "Hello world",
		},
		{
			name:   "vertical Td starts a new line",
			stream: "BT 72 720 Td (first) Tj 0 -14 Td (second) Tj ET",
			want:   "first\nsecond",
		},
		{
			name:   "horizontal Td is a space",
			stream: "BT 72 720 Td (left) Tj 100 0 Td (right) Tj ET",
			want:   "left right",
		},
		{
			name:   "TJ kerning",
			stream: "BT [(Hel) -20 (lo) -400 (there)] TJ ET",
			want:   "Hello there",
		},
		{
			name:   "escapes and nested parens",
			stream: `BT (a \(b\) \\ c\051 (d)) Tj ET`,
			want:   `a (b) \ c) (d)`,
		},
		{
			name:   "hex string",
			stream: "BT <48656C6C6F> Tj ET",
			want:   "Hello",
		},
		{
			name:   "utf16 with byte order mark",
			stream: "BT <FEFF004300E9> Tj ET",
			want:   "Cé",
		},
		{
			name:   "windows-1252 byte",
			stream: `BT (caf\351) Tj ET`,
			want:   "café",
		},
		{
			name:   "quote operator",
			stream: "BT (one) Tj (two) ' ET",
			want:   "one\ntwo",
		},
		{
			name:   "T star",
			stream: "BT (one) Tj T* (two) Tj ET",
			want:   "one\ntwo",
		},
		{
			name:   "Tm baseline change",
			stream: "BT 1 0 0 1 72 700 Tm (top) Tj 1 0 0 1 72 680 Tm (bottom) Tj ET",
			want:   "top\nbottom",
		},
		{
			name:   "inline image skipped",
			stream: "BI /W 2 /H 2 /BPC 8 ID \x00\x01(Tj)\x02 EI BT (after) Tj ET",
			want:   "after",
		},
		{
			name:   "comments and dictionaries ignored",
			stream: "% comment (not text) Tj\n/P <</MCID 0>> BDC BT (shown) Tj ET EMC",
			want:   "shown",
		},
		{
			name:   "no text operators",
			stream: "0.57 w 0 G 10 10 100 100 re f",
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentText([]byte(tt.stream)))
		})
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b\nc", cleanText("  a\t\x01 b \n\n\n c  "))
}
