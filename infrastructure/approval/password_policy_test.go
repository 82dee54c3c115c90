package approval

import (
	"errors"
	"testing"
)

func TestValidatePasswordPolicy(t *testing.T) {
	cases := []struct {
		name string
		pwd  string
		want error
	}{
		{name: "valid", pwd: "Workshop#2026", want: nil},
		{name: "short", pwd: "Ab1!", want: ErrPasswordTooShort},
		{name: "no symbol", pwd: "Workshop2026x", want: ErrPasswordTooWeak},
		{name: "no upper", pwd: "workshop#2026", want: ErrPasswordTooWeak},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePasswordPolicy(tc.pwd)
			if !errors.Is(err, tc.want) {
				t.Fatalf("ValidatePasswordPolicy(%q) = %v, want %v", tc.pwd, err, tc.want)
			}
		})
	}
}
