package filicious

import "testing"

func TestGuessMIMEType(t *testing.T) {
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

	tests := []struct {
		name string
		path string
		data []byte
		want string
	}{
		{"extension json", "config.json", []byte(`{"a":1}`), "application/json"},
		{"extension txt", "notes.TXT", []byte("hello"), "text/plain"},
		{"extension yaml", "deploy.yml", nil, "application/yaml"},
		{"sniffed png", "image.bin", pngHeader, "image/png"},
		{"empty unknown", "blob", nil, "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := GuessMIMEType(tt.path, tt.data); got != tt.want {
			t.Errorf("%s: GuessMIMEType = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGuessMIMEEncoding(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"plain text", []byte("hello world"), "utf-8"},
		{"binary", []byte{0x00, 0x01, 0x02, 0xff}, "binary"},
		{"empty", nil, "binary"},
	}

	for _, tt := range tests {
		if got := GuessMIMEEncoding(tt.data); got != tt.want {
			t.Errorf("%s: GuessMIMEEncoding = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSortNames(t *testing.T) {
	names := []string{"zeta", "Alpha", "beta", "ALPHA"}
	SortNames(names)

	want := []string{"ALPHA", "Alpha", "beta", "zeta"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("SortNames = %v, want %v", names, want)
		}
	}
}
