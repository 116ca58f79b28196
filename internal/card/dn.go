// Package card turns the backend's aggregated identity document into the
// sectioned user card, and parses the directory names it links to.
package card

import (
	"regexp"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// DN is a parsed distinguished name.
type DN struct {
	Raw string
	CN  string
	// OUs runs from the directory root to the leaf unit.
	OUs []string
}

var (
	cnPrefix = regexp.MustCompile(`(?i)^CN=([^,]+)`)
	ouPart   = regexp.MustCompile(`(?i)OU=([^,]+)`)
)

// ParseDN parses dn with RFC 4514 rules and falls back to a plain CN=/OU=
// scan for names the directory export mangled (unescaped commas and the like).
func ParseDN(dn string) DN {
	dn = strings.TrimSpace(dn)
	out := DN{Raw: dn}
	if dn == "" {
		return out
	}
	if parsed, err := ldap.ParseDN(dn); err == nil && len(parsed.RDNs) > 0 {
		var leafFirst []string
		for i, rdn := range parsed.RDNs {
			for _, attr := range rdn.Attributes {
				switch strings.ToUpper(attr.Type) {
				case "CN":
					if i == 0 && out.CN == "" {
						out.CN = attr.Value
					}
				case "OU":
					leafFirst = append(leafFirst, attr.Value)
				}
			}
		}
		out.OUs = reverse(leafFirst)
		return out
	}

	if m := cnPrefix.FindStringSubmatch(dn); m != nil {
		out.CN = m[1]
	}
	var leafFirst []string
	for _, m := range ouPart.FindAllStringSubmatch(dn, -1) {
		leafFirst = append(leafFirst, m[1])
	}
	out.OUs = reverse(leafFirst)
	return out
}

func reverse(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// Name is the CN, or the raw DN when there is none.
func (d DN) Name() string {
	if d.CN != "" {
		return d.CN
	}
	return d.Raw
}

// OUPath joins the units root to leaf with "/", the key of the OU tree.
func (d DN) OUPath() string {
	return strings.Join(d.OUs, "/")
}

// Display joins the units root to leaf for reading.
func (d DN) Display() string {
	return strings.Join(d.OUs, " › ")
}

// SplitDNList splits a ";"-separated list of distinguished names.
func SplitDNList(s string) []string {
	return splitList(s)
}

// SplitGroups splits a ";"-separated group list.
func SplitGroups(s string) []string {
	return splitList(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
