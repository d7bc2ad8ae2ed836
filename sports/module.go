package sports

import (
	"fmt"
	"time"

	"github.com/XavierBriggs/Augur/pkg/contracts"
	"github.com/XavierBriggs/Augur/pkg/models"
)

// Module implements the SportModule interface for one league
type Module struct {
	config *Config
}

var _ contracts.SportModule = (*Module)(nil)

// NewModule creates the module for a sport using its default heuristics
func NewModule(code models.SportCode) (*Module, error) {
	cfg := DefaultConfig(code)
	if cfg == nil {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownSport, code)
	}
	return &Module{config: cfg}, nil
}

// NewModuleWithConfig creates a module from an explicit config
func NewModuleWithConfig(cfg *Config) *Module {
	return &Module{config: cfg}
}

// AllModules returns a module for every supported sport
func AllModules() []*Module {
	modules := make([]*Module, 0, len(models.AllSports()))
	for _, code := range models.AllSports() {
		modules = append(modules, &Module{config: DefaultConfig(code)})
	}
	return modules
}

// GetSportCode returns the sport identifier
func (m *Module) GetSportCode() models.SportCode {
	return m.config.Code
}

// GetDisplayName returns the human-readable name
func (m *Module) GetDisplayName() string {
	return m.config.DisplayName
}

// GetAliases returns legacy feed codes for this sport
func (m *Module) GetAliases() []string {
	return m.config.Aliases
}

// GetDefaultSlot returns the sport-wide default kickoff and network
func (m *Module) GetDefaultSlot() (string, string) {
	return m.config.Default.Time, m.config.Default.Network
}

// GetKickoffTime returns the default kickoff for a weekday
func (m *Module) GetKickoffTime(day time.Weekday) string {
	return m.config.Slot(day).Time
}

// GetNetwork returns the default network for a weekday
func (m *Module) GetNetwork(day time.Weekday) string {
	return m.config.Slot(day).Network
}

// GetPrimetimeLabel returns the primetime label for a kickoff slot
func (m *Module) GetPrimetimeLabel(day time.Weekday, hour int) (string, bool) {
	return m.config.PrimetimeLabel(day, hour)
}
