package geo

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// CapitalSet is the set of cities exempt from the one-distributor-per-city
// rule. Keys are normalized "city-UF" composites.
type CapitalSet map[string]struct{}

var defaultCapitals = []string{
	"Rio Branco-AC", "Maceió-AL", "Macapá-AP", "Manaus-AM", "Salvador-BA",
	"Fortaleza-CE", "Brasília-DF", "Vitória-ES", "Goiânia-GO", "São Luís-MA",
	"Cuiabá-MT", "Campo Grande-MS", "Belo Horizonte-MG", "Belém-PA",
	"João Pessoa-PB", "Curitiba-PR", "Recife-PE", "Teresina-PI",
	"Rio de Janeiro-RJ", "Natal-RN", "Porto Alegre-RS", "Boa Vista-RR",
	"Florianópolis-SC", "São Paulo-SP", "Aracaju-SE", "Palmas-TO",
	"Porto Velho-RO",
}

func capitalKey(city, state string) string {
	return strings.ToLower(strings.TrimSpace(city)) + "-" + strings.ToUpper(strings.TrimSpace(state))
}

// DefaultCapitals returns the built-in state capital exemption set.
func DefaultCapitals() CapitalSet {
	set := make(CapitalSet, len(defaultCapitals))
	for _, entry := range defaultCapitals {
		i := strings.LastIndex(entry, "-")
		set[capitalKey(entry[:i], entry[i+1:])] = struct{}{}
	}
	return set
}

// LoadCapitals reads a YAML list of "City-UF" entries, replacing the
// built-in set. An empty path keeps the default.
func LoadCapitals(path string) (CapitalSet, error) {
	if path == "" {
		return DefaultCapitals(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading capitals file: %w", err)
	}
	var entries []string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing capitals file: %w", err)
	}
	set := make(CapitalSet, len(entries))
	for _, entry := range entries {
		i := strings.LastIndex(entry, "-")
		if i <= 0 || i == len(entry)-1 {
			return nil, fmt.Errorf("malformed capitals entry %q, expected City-UF", entry)
		}
		set[capitalKey(entry[:i], entry[i+1:])] = struct{}{}
	}
	return set, nil
}

// Contains reports whether city/state is an exempted capital.
func (s CapitalSet) Contains(city, state string) bool {
	_, ok := s[capitalKey(city, state)]
	return ok
}
