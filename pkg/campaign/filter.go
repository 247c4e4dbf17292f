package campaign

// Filter returns the recipients whose address is not blacklisted, preserving input order.
func Filter(recipients []Recipient, blacklist Blacklist) []Recipient {
	out := make([]Recipient, 0, len(recipients))
	for _, r := range recipients {
		if blacklist.Contains(r.Email) {
			continue
		}
		out = append(out, r)
	}
	return out
}
