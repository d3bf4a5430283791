// Package config loads the optional site-profile registry: per-site
// panel area, module efficiency and fixed-tilt PR baseline. Flags
// override profile values; profiles override the built-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ratthapon/suntrack/internal/models"
)

// Defaults mirror the prototype rig: one square meter at 20%
// efficiency against a 0.75 fixed-tilt baseline.
const (
	DefaultPanelAreaM2     = 1.0
	DefaultModuleEff       = 0.20
	DefaultFixedPRBaseline = 0.75
)

type siteFile struct {
	Sites []models.SiteProfile `yaml:"sites"`
}

// LoadSiteProfiles parses a sites.yaml registry. A missing path is not
// an error when optional is true; a malformed file always is.
func LoadSiteProfiles(path string, optional bool) (map[string]models.SiteProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return map[string]models.SiteProfile{}, nil
		}
		return nil, fmt.Errorf("read site profiles %s: %w", path, err)
	}

	var f siteFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse site profiles %s: %w", path, err)
	}

	profiles := make(map[string]models.SiteProfile, len(f.Sites))
	for _, p := range f.Sites {
		if p.SiteID == "" {
			return nil, fmt.Errorf("site profile in %s missing site_id", path)
		}
		profiles[p.SiteID] = p
	}
	return profiles, nil
}

// Resolve fills in reference parameters for a site: explicit flag
// values win, then the site's profile, then the defaults. A flag value
// of zero means "not set".
func Resolve(profiles map[string]models.SiteProfile, siteID string, area, eff, baseline float64) (float64, float64, float64) {
	p, ok := profiles[siteID]
	if area == 0 {
		if ok && p.PanelAreaM2 > 0 {
			area = p.PanelAreaM2
		} else {
			area = DefaultPanelAreaM2
		}
	}
	if eff == 0 {
		if ok && p.ModuleEff > 0 {
			eff = p.ModuleEff
		} else {
			eff = DefaultModuleEff
		}
	}
	if baseline == 0 {
		if ok && p.FixedPRBaseline > 0 {
			baseline = p.FixedPRBaseline
		} else {
			baseline = DefaultFixedPRBaseline
		}
	}
	return area, eff, baseline
}
