// Package launcherdata persists the module order/state document the native
// launcher reads.
//
// The in-memory [State] is an ordered list of (id, version, enabled) entries.
// [BuildDocument] denormalizes it into the launcher's XML shape, [Store]
// handles backups, atomic writes and mirroring, and [Debouncer] coalesces
// rapid toggle bursts into single writes.
package launcherdata

import (
	"encoding/xml"
	"io"
	"os"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/knightfall-dh/bannerman/pkg/modules"
)

const (
	xsdNamespace = "http://www.w3.org/2001/XMLSchema"
	xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"

	// GameTypeSingleplayer is the only mode tag this manager writes.
	GameTypeSingleplayer = "Singleplayer"
)

// Entry is one module's persisted state.
type Entry struct {
	ID          string
	Version     modules.Version
	Enabled     bool
	Multiplayer bool
}

// State is the ordered module list the document is built from. Order is the
// resolved load order.
type State struct {
	Entries []Entry
}

// Entry returns the entry for id and true, or a zero entry and false.
func (s State) Entry(id string) (Entry, bool) {
	for _, e := range s.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// SetEnabled flips one entry's enabled flag in place. Unknown ids are ignored.
func (s *State) SetEnabled(id string, enabled bool) {
	for i := range s.Entries {
		if s.Entries[i].ID == id {
			s.Entries[i].Enabled = enabled
			return
		}
	}
}

// Clone returns a deep copy, so a snapshot handed to the write path cannot be
// mutated by later toggles.
func (s State) Clone() State {
	out := State{Entries: make([]Entry, len(s.Entries))}
	copy(out.Entries, s.Entries)
	return out
}

// Policy fixes the document-shaping rules that do not live in the state
// itself.
type Policy struct {
	// Pinned ids are always written as enabled.
	Pinned []string

	// Multiplayer is the fixed membership of the multiplayer list; modules
	// flagged multiplayer in their descriptor are added on top.
	Multiplayer []string

	// Known ids (the tier members) are recognized; everything else lands in
	// the unverified list.
	Known []string

	// DLLCheck lists framework module ids recorded with their DLL names.
	DLLCheck []string
}

// UserModData is one (id, version, enabled) triple in the document.
type UserModData struct {
	ID               string `xml:"Id"`
	LastKnownVersion string `xml:"LastKnownVersion"`
	IsSelected       bool   `xml:"IsSelected"`
}

// DLLCheckData records one framework DLL for the launcher's verification.
type DLLCheckData struct {
	DLLName    string `xml:"DLLName"`
	IsVerified bool   `xml:"IsVerified"`
}

type modDatas struct {
	ModDatas []UserModData `xml:"ModDatas>UserModData"`
}

// Document is the launcher data file's XML shape.
type Document struct {
	XMLName xml.Name `xml:"UserData"`
	XSD     string   `xml:"xmlns:xsd,attr"`
	XSI     string   `xml:"xmlns:xsi,attr"`

	GameType           string         `xml:"GameType"`
	SingleplayerData   modDatas       `xml:"SingleplayerData"`
	MultiplayerData    modDatas       `xml:"MultiplayerData"`
	UnverifiedModDatas []UserModData  `xml:"UnverifiedModDatas>UnverifiedModData"`
	DLLCheckDatas      []DLLCheckData `xml:"DLLCheckDatas>DLLCheckData"`
}

// BuildDocument denormalizes state into the launcher's document shape.
//
// Pinned ids are forced enabled. The multiplayer list is the fixed membership
// plus every multiplayer-flagged module, in state order. Ids outside the
// known set are additionally recorded as unverified. DLL check entries are
// emitted for the configured framework ids present in the state.
func BuildDocument(s State, p Policy) *Document {
	pinned := mapset.NewSet(p.Pinned...)
	known := mapset.NewSet(p.Known...)
	mpFixed := mapset.NewSet(p.Multiplayer...)

	doc := &Document{
		XSD:      xsdNamespace,
		XSI:      xsiNamespace,
		GameType: GameTypeSingleplayer,
	}

	for _, e := range s.Entries {
		enabled := e.Enabled || pinned.Contains(e.ID)
		data := UserModData{
			ID:               e.ID,
			LastKnownVersion: e.Version.Bare(),
			IsSelected:       enabled,
		}

		doc.SingleplayerData.ModDatas = append(doc.SingleplayerData.ModDatas, data)
		if mpFixed.Contains(e.ID) || e.Multiplayer {
			// The launcher treats every multiplayer entry as selected.
			mpData := data
			mpData.IsSelected = true
			doc.MultiplayerData.ModDatas = append(doc.MultiplayerData.ModDatas, mpData)
		}
		if !known.Contains(e.ID) {
			doc.UnverifiedModDatas = append(doc.UnverifiedModDatas, data)
		}
	}

	present := mapset.NewSet[string]()
	for _, e := range s.Entries {
		present.Add(e.ID)
	}
	for _, id := range p.DLLCheck {
		if present.Contains(id) {
			doc.DLLCheckDatas = append(doc.DLLCheckDatas, DLLCheckData{DLLName: dllName(id)})
		}
	}

	return doc
}

// dllName maps a module id to its assembly file name. Framework assemblies
// drop the Bannerlord. prefix, and the option screen ships its assembly under
// the MCM name rather than the module id.
func dllName(id string) string {
	if id == "Bannerlord.MBOptionScreen" {
		return "MCMv5.dll"
	}
	return strings.TrimPrefix(id, "Bannerlord.") + ".dll"
}

// StateFromDocument extracts the primary list back into a State. Multiplayer
// flags are recovered from membership in the multiplayer list.
func StateFromDocument(doc *Document) State {
	mp := mapset.NewSet[string]()
	for _, m := range doc.MultiplayerData.ModDatas {
		mp.Add(m.ID)
	}

	var s State
	for _, m := range doc.SingleplayerData.ModDatas {
		if m.ID == "" {
			continue
		}
		s.Entries = append(s.Entries, Entry{
			ID:          m.ID,
			Version:     modules.ParseVersionOrDefault(m.LastKnownVersion),
			Enabled:     m.IsSelected,
			Multiplayer: mp.Contains(m.ID),
		})
	}
	return s
}

// DecodeDocument parses a launcher data file.
func DecodeDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// EncodeDocument renders the document with the XML declaration and two-space
// indentation, matching what the native launcher writes.
func EncodeDocument(doc *Document, w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// loadDocument reads path, treating a missing or malformed file as empty.
func loadDocument(path string) (*Document, bool) {
	f, err := os.Open(path)
	if err != nil {
		return &Document{GameType: GameTypeSingleplayer}, false
	}
	defer f.Close()

	doc, err := DecodeDocument(f)
	if err != nil {
		return &Document{GameType: GameTypeSingleplayer}, false
	}
	if strings.TrimSpace(doc.GameType) == "" {
		doc.GameType = GameTypeSingleplayer
	}
	return doc, true
}
