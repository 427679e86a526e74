package counter

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		domain Domain
		code   string
		field  string
		want   string
	}{
		{
			name:   "domainFieldMatch",
			domain: DomainOrder,
			code:   "E0040",
			field:  "menu",
			want:   "This item is no longer on the menu.",
		},
		{
			name:   "fieldMatchIsCaseInsensitive",
			domain: DomainOrder,
			code:   "E0040",
			field:  "MENU",
			want:   "This item is no longer on the menu.",
		},
		{
			name:   "unknownFieldFallsBackToCodeTable",
			domain: DomainOrder,
			code:   "E0040",
			field:  "somethingelse",
			want:   "An item in the order is unavailable.",
		},
		{
			name:   "unknownDomainFallsBackToCodeTable",
			domain: Domain("billing"),
			code:   "E0036",
			field:  "items",
			want:   "The order has no items to send.",
		},
		{
			name:   "unknownCodeFallsBackToGeneric",
			domain: DomainOrder,
			code:   "E9999",
			field:  "createorder",
			want:   GenericErrorMessage,
		},
		{
			name:   "emptyEverythingStillResolves",
			domain: Domain(""),
			code:   "",
			field:  "",
			want:   GenericErrorMessage,
		},
		{
			name:   "authDomainScoping",
			domain: DomainAuth,
			code:   "E0001",
			field:  "password",
			want:   "Username or password is incorrect.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.domain, tt.code, tt.field)
			if got != tt.want {
				t.Errorf("Resolve(%q, %q, %q) = %q, want %q", tt.domain, tt.code, tt.field, got, tt.want)
			}
			if got == "" {
				t.Error("Resolve() must never return an empty message")
			}
		})
	}
}
