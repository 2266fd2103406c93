package errors

import (
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		msg      string
		expected string
	}{
		{
			name:     "wrap nil error",
			err:      nil,
			msg:      "additional context",
			expected: "",
		},
		{
			name:     "wrap sentinel error",
			err:      ErrChecksumMismatch,
			msg:      "verifying moddex-v1.2.3-linux-amd64.tar.gz",
			expected: "verifying moddex-v1.2.3-linux-amd64.tar.gz: checksum mismatch",
		},
		{
			name:     "wrap standard error",
			err:      errors.New("original error"),
			msg:      "additional context",
			expected: "additional context: original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrap(tt.err, tt.msg)
			if tt.err == nil {
				if result != nil {
					t.Errorf("Expected nil, got %v", result)
				}
				return
			}
			if result.Error() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result.Error())
			}
			if !errors.Is(result, tt.err) {
				t.Errorf("Expected wrapped error to contain original error")
			}
		})
	}
}

func TestWrapf(t *testing.T) {
	err := Wrapf(ErrResolutionFailed, "strategy %q for %s/%s", "redirect", "moddex", "moddex")
	want := `strategy "redirect" for moddex/moddex: could not resolve release version`
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
	if !errors.Is(err, ErrResolutionFailed) {
		t.Errorf("Expected sentinel to survive wrapping")
	}

	if Wrapf(nil, "ignored %d", 1) != nil {
		t.Errorf("Expected nil for nil error")
	}
}
