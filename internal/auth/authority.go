package auth

import (
	"slices"
	"strings"

	"github.com/go-authgate/dirgate/internal/config"
)

// AuthorityMapper turns directory group names into authority names. Every
// mapper returns a sorted list without blanks or duplicates.
type AuthorityMapper func(groups []string) []string

// IdentityMapper grants one authority per group, named after the group.
func IdentityMapper(groups []string) []string {
	return normalizeAuthorities(groups)
}

// PrefixMapper optionally upper-cases each name, then adds prefix unless the
// name already starts with it.
func PrefixMapper(prefix string, upper bool) AuthorityMapper {
	return func(groups []string) []string {
		out := make([]string, 0, len(groups))
		for _, g := range groups {
			if upper {
				g = strings.ToUpper(g)
			}
			if prefix != "" && !strings.HasPrefix(g, prefix) {
				g = prefix + g
			}
			out = append(out, g)
		}
		return normalizeAuthorities(out)
	}
}

// TableMapper translates groups through table. Groups missing from the table
// pass through unchanged when keepUnmapped is set and are dropped otherwise.
func TableMapper(table map[string]string, keepUnmapped bool) AuthorityMapper {
	return func(groups []string) []string {
		out := make([]string, 0, len(groups))
		for _, g := range groups {
			if a, ok := table[g]; ok {
				out = append(out, a)
			} else if keepUnmapped {
				out = append(out, g)
			}
		}
		return normalizeAuthorities(out)
	}
}

// WithDefault adds authority to whatever m returns.
func WithDefault(m AuthorityMapper, authority string) AuthorityMapper {
	return func(groups []string) []string {
		return normalizeAuthorities(append(m(groups), authority))
	}
}

// Compose applies mappers left to right.
func Compose(mappers ...AuthorityMapper) AuthorityMapper {
	return func(groups []string) []string {
		out := normalizeAuthorities(groups)
		for _, m := range mappers {
			out = m(out)
		}
		return out
	}
}

// NewAuthorityMapper builds the mapper described by the AUTHORITY_* settings:
// table lookup, then case and prefix, then the default authority.
func NewAuthorityMapper(cfg *config.Config) AuthorityMapper {
	var chain []AuthorityMapper
	if len(cfg.AuthorityMapping) > 0 {
		chain = append(chain, TableMapper(cfg.AuthorityMapping, true))
	}
	if cfg.AuthorityPrefix != "" || cfg.AuthorityUppercase {
		chain = append(chain, PrefixMapper(cfg.AuthorityPrefix, cfg.AuthorityUppercase))
	}

	mapper := AuthorityMapper(IdentityMapper)
	if len(chain) > 0 {
		mapper = Compose(chain...)
	}
	if cfg.AuthorityDefault != "" {
		mapper = WithDefault(mapper, cfg.AuthorityDefault)
	}
	return mapper
}

func normalizeAuthorities(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
