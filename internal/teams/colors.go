package teams

import (
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/XavierBriggs/Augur/sports"
	"github.com/sirupsen/logrus"
)

// FallbackPalette is used for any team without a color entry
var FallbackPalette = models.TeamPalette{
	Primary:   "#6366F1",
	Secondary: "#000000",
	Tertiary:  "#FFFFFF",
}

// ColorResolver maps full team names to palettes
type ColorResolver struct {
	tables *sports.Tables
	logger *logrus.Entry
}

// NewColorResolver creates a color resolver over the given tables
func NewColorResolver(tables *sports.Tables, logger *logrus.Entry) *ColorResolver {
	return &ColorResolver{tables: tables, logger: logger}
}

// Colors looks up the palette by exact full name. Misses return FallbackPalette.
func (c *ColorResolver) Colors(fullName string, sport models.SportCode) models.TeamPalette {
	code, ok := models.NormalizeSport(string(sport))
	if ok {
		if set, found := c.tables.For(code); found {
			if palette, hit := set.Colors[fullName]; hit {
				return palette
			}
		}
	}

	c.logger.WithFields(logrus.Fields{
		"team":  fullName,
		"sport": sport,
	}).Debug("no palette for team, using fallback colors")

	return FallbackPalette
}
