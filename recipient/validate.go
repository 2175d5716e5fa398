package recipient

import "fmt"

// ValidationResult is the outcome of validating a recipient set.
type ValidationResult struct {
	// Valid is true if no problems were found.
	Valid bool

	// Errors holds one human-readable line per problem.
	Errors []string
}

// ValidateValueSplits checks a recipient set before it is used for a
// payment. The result is advisory: neither the split calculator nor the
// orchestrator refuse an invalid set.
func ValidateValueSplits(recipients []*Recipient) *ValidationResult {
	var errs []string

	if len(recipients) == 0 {
		return &ValidationResult{
			Errors: []string{"No recipients defined"},
		}
	}

	total := TotalSplit(recipients)
	switch {
	case total <= 0:
		errs = append(errs, "Total split must be greater than 0")

	case total > 100:
		errs = append(errs, fmt.Sprintf("Total split %v exceeds 100%%",
			total))
	}

	for idx, r := range recipients {
		label := fmt.Sprintf("Recipient %d", idx+1)
		if r.Name != "" {
			label = fmt.Sprintf("Recipient %d (%s)", idx+1, r.Name)
		}

		if r.Split <= 0 {
			errs = append(errs, label+": split must be greater "+
				"than 0")
		}
		if r.Address == "" {
			errs = append(errs, label+": missing address")
			continue
		}

		switch r.Type {
		case TypeLnAddress:
			if !IsLightningAddress(r.Address) {
				errs = append(errs, fmt.Sprintf("%s: invalid "+
					"lightning address %q", label, r.Address))
			}

		case TypeNode:
			if !IsNodePubkey(r.Address) {
				errs = append(errs, fmt.Sprintf("%s: invalid "+
					"node pubkey %q", label, r.Address))
			}

		default:
			errs = append(errs, fmt.Sprintf("%s: unsupported "+
				"type %q", label, r.Type))
		}
	}

	return &ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}
