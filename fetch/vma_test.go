package fetch

import "testing"

func TestParseMapsLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr bool
		want    VMAChunk
	}{
		{
			name: "file-backed mapping",
			line: "55a3c1234000-55a3c1235000 r-xp 00001000 08:01 123456 /usr/bin/sleep",
			want: VMAChunk{Start: 0x55a3c1234000, End: 0x55a3c1235000, Perms: "r-xp", Offset: 0x1000, Path: "/usr/bin/sleep"},
		},
		{
			name: "anonymous mapping",
			line: "7f1234560000-7f1234580000 rw-p 00000000 00:00 0 ",
			want: VMAChunk{Start: 0x7f1234560000, End: 0x7f1234580000, Perms: "rw-p", Offset: 0},
		},
		{
			name: "heap pseudo-path",
			line: "55a3c2000000-55a3c2021000 rw-p 00000000 00:00 0                          [heap]",
			want: VMAChunk{Start: 0x55a3c2000000, End: 0x55a3c2021000, Perms: "rw-p", Offset: 0, Path: "[heap]"},
		},
		{
			name:    "malformed line",
			line:    "not a maps line",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMapsLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMapsLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Start != tt.want.Start || got.End != tt.want.End || got.Perms != tt.want.Perms ||
				got.Offset != tt.want.Offset || got.Path != tt.want.Path {
				t.Errorf("parseMapsLine() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
