package cmd

import "testing"

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 bytes"},
		{1023, "1023 bytes"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		if got := formatSize(tt.size); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestColorizeDiffNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	diff := "--- container/a\n+++ local/a\n@@ -1 +1 @@\n-old\n+new\n"
	if got := colorizeDiff(diff); got != diff {
		t.Errorf("colorizeDiff() changed output without color:\n%s", got)
	}
	if got := success.Sprintf("%s", "ok"); got != "ok" {
		t.Errorf("Sprintf() = %q, want plain text", got)
	}
}

func TestStartSpinnerWithoutTerminal(t *testing.T) {
	sp := startSpinner("Working")
	sp.Progress(50)
	sp.Stop()
}
