package form

import "testing"

type orderInput struct {
	PartyName string `validate:"required,max=120"`
	Quantity  int64  `validate:"gt=0"`
	OrderDate string `validate:"required,datetime=2006-01-02"`
	POType    string `validate:"omitempty,oneof=a b"`
}

func TestValidate_Messages(t *testing.T) {
	cases := []struct {
		in   orderInput
		want string
	}{
		{orderInput{Quantity: 1, OrderDate: "2026-10-01"}, "party name is required"},
		{orderInput{PartyName: "Shree", OrderDate: "2026-10-01"}, "quantity must be greater than 0"},
		{orderInput{PartyName: "Shree", Quantity: 1, OrderDate: "01/10/2026"}, "order date must be a date (YYYY-MM-DD)"},
		{orderInput{PartyName: "Shree", Quantity: 1, OrderDate: "2026-10-01", POType: "c"}, "po type must be one of a b"},
	}
	for _, tc := range cases {
		err := Validate(tc.in)
		if err == nil || err.Error() != tc.want {
			t.Fatalf("Validate(%+v) = %v, want %q", tc.in, err, tc.want)
		}
	}
	if err := Validate(orderInput{PartyName: "Shree", Quantity: 3, OrderDate: "2026-10-01"}); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}
