package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/XavierBriggs/Augur/pkg/contracts"
	"github.com/XavierBriggs/Augur/pkg/models"
)

// SportRegistry manages registered sport modules
type SportRegistry struct {
	sports  map[models.SportCode]contracts.SportModule
	aliases map[string]models.SportCode
	mu      sync.RWMutex
}

// NewSportRegistry creates a new sport registry
func NewSportRegistry() *SportRegistry {
	return &SportRegistry{
		sports:  make(map[models.SportCode]contracts.SportModule),
		aliases: make(map[string]models.SportCode),
	}
}

// Register adds a sport module to the registry
func (r *SportRegistry) Register(sport contracts.SportModule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := sport.GetSportCode()
	if _, exists := r.sports[code]; exists {
		return fmt.Errorf("sport %s is already registered", code)
	}

	for _, alias := range sport.GetAliases() {
		key := strings.ToUpper(alias)
		if owner, taken := r.aliases[key]; taken {
			return fmt.Errorf("alias %s already belongs to %s", alias, owner)
		}
		r.aliases[key] = code
	}

	r.sports[code] = sport
	return nil
}

// Get retrieves a sport module by code
func (r *SportRegistry) Get(code models.SportCode) (contracts.SportModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sport, exists := r.sports[code]
	return sport, exists
}

// Resolve maps a raw feed sport string (including legacy aliases) to a registered module
func (r *SportRegistry) Resolve(raw string) (contracts.SportModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToUpper(strings.TrimSpace(raw))
	if code, ok := r.aliases[key]; ok {
		return r.sports[code], true
	}

	sport, exists := r.sports[models.SportCode(key)]
	return sport, exists
}

// GetAll returns all registered sports in board priority order
func (r *SportRegistry) GetAll() []contracts.SportModule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sports := make([]contracts.SportModule, 0, len(r.sports))
	for _, sport := range r.sports {
		sports = append(sports, sport)
	}
	sort.Slice(sports, func(i, j int) bool {
		return sports[i].GetSportCode().Priority() < sports[j].GetSportCode().Priority()
	})
	return sports
}

// Count returns the number of registered sports
func (r *SportRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sports)
}
