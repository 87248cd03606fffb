package distribution

import (
	"errors"
	"testing"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    Target
		wantErr bool
	}{
		{"drive", TargetDrive, false},
		{" MinIO ", TargetMinio, false},
		{"s3", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTarget(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownTarget) {
					t.Errorf("ParseTarget(%q) error = %v, want ErrUnknownTarget", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseTarget(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestStorageInfo_HasSpaceFor(t *testing.T) {
	tests := []struct {
		name  string
		info  StorageInfo
		bytes int64
		want  bool
	}{
		{"room", StorageInfo{TotalBytes: 100, UsedBytes: 40, AvailableBytes: 60}, 60, true},
		{"no room", StorageInfo{TotalBytes: 100, UsedBytes: 90, AvailableBytes: 10}, 11, false},
		{"unlimited", StorageInfo{UsedBytes: 1 << 40}, 1 << 30, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.HasSpaceFor(tt.bytes); got != tt.want {
				t.Errorf("HasSpaceFor(%d) = %v, want %v", tt.bytes, got, tt.want)
			}
		})
	}
}
