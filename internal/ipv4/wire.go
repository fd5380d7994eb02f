package ipv4

// MarshalText renders the address in canonical "a.b.c.d/len" form, making
// the type usable with encoding/json and friends.
func (a *Address) MarshalText() ([]byte, error) {
	return []byte(a.Canonical()), nil
}

// UnmarshalText parses canonical form. The receiver is replaced wholesale;
// a failed parse leaves it untouched.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = *parsed
	return nil
}
