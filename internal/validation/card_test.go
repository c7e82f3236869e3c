package validation

import "testing"

func TestIsValidCardNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		valid  bool
	}{
		{
			name:   "regular",
			number: "25-001",
			valid:  true,
		},
		{
			name:   "counter above 999",
			number: "25-1000",
			valid:  true,
		},
		{
			name:   "missing dash",
			number: "25001",
			valid:  false,
		},
		{
			name:   "short counter",
			number: "25-01",
			valid:  false,
		},
		{
			name:   "contains letters",
			number: "2a-001",
			valid:  false,
		},
		{
			name:   "second dash",
			number: "25-0-1",
			valid:  false,
		},
		{
			name:   "empty string",
			number: "",
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidCardNumber(tt.number)
			if got != tt.valid {
				t.Fatalf("IsValidCardNumber(%q) = %v, want %v", tt.number, got, tt.valid)
			}
		})
	}
}
