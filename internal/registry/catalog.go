package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Catalog is the published view of the registry.
type Catalog struct {
	Version CatalogVersion `json:"catalog_version"`
	Methods []MethodInfo   `json:"methods"`
}

type CatalogVersion struct {
	Version   string `json:"version"`
	Checksum  string `json:"checksum"`  // sha256 of methods
	Generated int64  `json:"generated"` // unix timestamp
}

type MethodInfo struct {
	Name      string   `json:"name"`
	Help      string   `json:"help,omitempty"`
	Signature []string `json:"signature,omitempty"`
	Rules     []string `json:"rules"`
}

func (m Method) Info() MethodInfo {
	return MethodInfo{
		Name:      m.Name,
		Help:      m.Help,
		Signature: m.Signature,
		Rules:     m.Rules.Names(),
	}
}

// Catalog snapshots the registry. The checksum only depends on the
// methods and their rules.
func (reg *Registry) Catalog(version string) Catalog {
	methods := reg.Methods()
	infos := make([]MethodInfo, 0, len(methods))
	for _, m := range methods {
		infos = append(infos, m.Info())
	}
	return Catalog{
		Version: NewCatalogVersion(version, infos, reg.clock.Now()),
		Methods: infos,
	}
}

// NewCatalogVersion stamps methods with version, their sha256 and at.
func NewCatalogVersion(version string, methods []MethodInfo, at time.Time) CatalogVersion {
	raw, _ := json.Marshal(methods)
	sum := sha256.Sum256(raw)
	return CatalogVersion{
		Version:   version,
		Checksum:  hex.EncodeToString(sum[:]),
		Generated: at.Unix(),
	}
}
