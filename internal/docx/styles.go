package docx

import (
	"encoding/xml"
)

type styleSheet struct {
	Styles []styleDef `xml:"style"`
}

type styleDef struct {
	Type    string `xml:"type,attr"`
	ID      string `xml:"styleId,attr"`
	Default string `xml:"default,attr"`
	Name    struct {
		Val string `xml:"val,attr"`
	} `xml:"name"`
}

type styles struct {
	names        map[string]string
	defaultStyle string
}

func parseStyles(data []byte) (styles, error) {
	s := styles{names: map[string]string{}}
	if len(data) == 0 {
		return s, nil
	}

	var sheet styleSheet
	if err := xml.Unmarshal(data, &sheet); err != nil {
		return s, &FormatError{Part: stylesPart, Reason: "malformed xml", Err: err}
	}

	for _, def := range sheet.Styles {
		if def.Type != "" && def.Type != "paragraph" {
			continue
		}

		name := def.Name.Val
		if name == "" {
			name = def.ID
		}

		s.names[def.ID] = name

		if isOn(def.Default) {
			s.defaultStyle = name
		}
	}

	return s, nil
}

// resolve maps a style id to its display name. Paragraphs without a known style use the
// default paragraph style, as Word does.
func (s styles) resolve(id string) string {
	if name, ok := s.names[id]; ok {
		return name
	}

	if s.defaultStyle != "" {
		return s.defaultStyle
	}

	return id
}

func isOn(v string) bool {
	switch v {
	case "1", "true", "on":
		return true
	}

	return false
}
