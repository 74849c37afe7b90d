package assessment

// Domain is one of the independently scored health categories.
type Domain string

const (
	DomainMetabolic Domain = "metabolic"
	DomainCardiac   Domain = "cardiac"
	DomainHepatic   Domain = "hepatic"
	DomainMental    Domain = "mental"
)

// AllDomains returns the scoring domains in presentation order.
func AllDomains() []Domain {
	return []Domain{DomainMetabolic, DomainCardiac, DomainHepatic, DomainMental}
}

// ValidDomain reports whether d names a known domain.
func ValidDomain(d Domain) bool {
	switch d {
	case DomainMetabolic, DomainCardiac, DomainHepatic, DomainMental:
		return true
	}
	return false
}
