// Package modules locates, parses and resolves Bannerlord module
// descriptors (SubModule.xml files).
//
// A descriptor can be found in up to three kinds of source roots: the
// native game Modules directory, the enabled add-on directories, and an
// optional override directory. The [Store] caches parsed descriptors keyed
// by file path with modification-time invalidation, [Scan] gathers the full
// candidate pool, and [BuildPool] applies the source-precedence policy to
// pick exactly one winning descriptor per module id.
package modules

import (
	"encoding/xml"
	"io"
	"strings"

	apperrors "github.com/knightfall-dh/bannerman/pkg/errors"
)

// LoadOrder is a dependency's declared ordering constraint.
type LoadOrder string

const (
	// LoadBeforeThis pulls the target earlier when possible, without ever
	// inducing a cycle.
	LoadBeforeThis LoadOrder = "LoadBeforeThis"

	// LoadAfterThis requires the target to appear earlier in the load order
	// than the declaring module.
	LoadAfterThis LoadOrder = "LoadAfterThis"
)

// SourceKind identifies which kind of root a descriptor was read from.
type SourceKind int

const (
	// SourceNative is the base game Modules directory.
	SourceNative SourceKind = iota
	// SourceAddOn is an enabled add-on directory.
	SourceAddOn
	// SourceOverride is the override directory that occludes everything else.
	SourceOverride
)

// String returns the source name used in logs and origin reporting.
func (k SourceKind) String() string {
	switch k {
	case SourceOverride:
		return "override"
	case SourceAddOn:
		return "add-on"
	default:
		return "native"
	}
}

// Dependency is one declared ordering constraint of a descriptor.
type Dependency struct {
	ID                string
	Order             LoadOrder
	Optional          bool
	VersionConstraint string // "*" when unconstrained
}

// ModuleDescriptor identifies one installable content package.
type ModuleDescriptor struct {
	ID          string
	Name        string
	RawVersion  string
	Version     Version
	Multiplayer bool

	Dependencies      []Dependency
	Incompatibilities []string

	Source     SourceKind
	SourcePath string
}

// xmlValue reads Bannerlord's two spellings of a scalar field: a value
// attribute (<Id value="Native"/>) or element text (<Id>Native</Id>).
type xmlValue struct {
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`
}

func (v xmlValue) get() string {
	if v.Value != "" {
		return v.Value
	}
	return strings.TrimSpace(v.Text)
}

func (v xmlValue) isTrue() bool {
	return strings.EqualFold(v.get(), "true")
}

type xmlDependedModule struct {
	ID       string `xml:"Id,attr"`
	Version  string `xml:"DependentVersion,attr"`
	Optional string `xml:"Optional,attr"`
}

type xmlDependedModuleMetadata struct {
	ID           string `xml:"id,attr"`
	Order        string `xml:"order,attr"`
	Optional     string `xml:"optional,attr"`
	Version      string `xml:"version,attr"`
	Incompatible string `xml:"incompatible,attr"`
}

type xmlSubModule struct {
	XMLName           xml.Name                    `xml:"Module"`
	Name              xmlValue                    `xml:"Name"`
	ID                xmlValue                    `xml:"Id"`
	Version           xmlValue                    `xml:"Version"`
	MultiplayerModule xmlValue                    `xml:"MultiplayerModule"`
	DependedModules   []xmlDependedModule         `xml:"DependedModules>DependedModule"`
	Metadata          []xmlDependedModuleMetadata `xml:"DependedModuleMetadatas>DependedModuleMetadata"`
}

// DecodeDescriptor parses a SubModule.xml document. fallbackID (normally the
// containing directory name) is used when the descriptor declares no id.
//
// Unparseable version text normalizes to the default version; callers that
// want to surface the anomaly can re-check RawVersion with [ParseVersion].
// Dependency entries lacking a target id are skipped.
func DecodeDescriptor(r io.Reader, fallbackID string) (*ModuleDescriptor, error) {
	var doc xmlSubModule
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidDescriptor, err, "malformed descriptor")
	}

	id := doc.ID.get()
	if id == "" {
		id = fallbackID
	}
	if err := apperrors.ValidateModuleID(id); err != nil {
		return nil, err
	}

	name := doc.Name.get()
	if name == "" {
		name = id
	}

	d := &ModuleDescriptor{
		ID:          id,
		Name:        name,
		RawVersion:  doc.Version.get(),
		Version:     ParseVersionOrDefault(doc.Version.get()),
		Multiplayer: doc.MultiplayerModule.isTrue(),
	}

	for _, m := range doc.Metadata {
		if m.ID == "" {
			continue
		}
		if strings.EqualFold(m.Incompatible, "true") {
			d.Incompatibilities = append(d.Incompatibilities, m.ID)
			continue
		}
		order := LoadAfterThis
		if LoadOrder(m.Order) == LoadBeforeThis {
			order = LoadBeforeThis
		}
		constraint := m.Version
		if constraint == "" {
			constraint = "*"
		}
		d.Dependencies = append(d.Dependencies, Dependency{
			ID:                m.ID,
			Order:             order,
			Optional:          strings.EqualFold(m.Optional, "true"),
			VersionConstraint: constraint,
		})
	}

	// Legacy DependedModules entries carry no order attribute; they are hard
	// "target must load first" constraints unless already declared above.
	declared := make(map[string]bool, len(d.Dependencies))
	for _, dep := range d.Dependencies {
		declared[dep.ID] = true
	}
	for _, m := range doc.DependedModules {
		if m.ID == "" || declared[m.ID] {
			continue
		}
		constraint := m.Version
		if constraint == "" {
			constraint = "*"
		}
		d.Dependencies = append(d.Dependencies, Dependency{
			ID:                m.ID,
			Order:             LoadAfterThis,
			Optional:          strings.EqualFold(m.Optional, "true"),
			VersionConstraint: constraint,
		})
		declared[m.ID] = true
	}

	return d, nil
}
