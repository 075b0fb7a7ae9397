package utils

import "testing"

func TestNormalizeIdentity(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain ipv4", in: "192.0.2.10", want: "192.0.2.10"},
		{name: "ipv4 with port", in: "192.0.2.10:51234", want: "192.0.2.10"},
		{name: "padded", in: "  192.0.2.10 ", want: "192.0.2.10"},
		{name: "ipv6 long form", in: "2001:0db8:0000:0000:0000:0000:0000:0001", want: "2001:db8::1"},
		{name: "ipv6 with port", in: "[2001:db8::1]:8080", want: "2001:db8::1"},
		{name: "ipv6 with zone", in: "fe80::1%eth0", want: "fe80::1"},
		{name: "unparseable", in: "unknown", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeIdentity(tt.in); got != tt.want {
				t.Fatalf("NormalizeIdentity(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
