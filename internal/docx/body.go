package docx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// parseBody locates the body-level paragraphs of word/document.xml together with the byte
// ranges they occupy, so that a rewrite can splice new markup in without touching the rest.
func parseBody(body []byte) ([]*Paragraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var (
		paragraphs []*Paragraph
		cur        *Paragraph
		text       strings.Builder
		stack      []string

		propsStart int64 = -1
		runStart   int64 = -1
		runDepth   int
		skipDepth  int
		insideText bool
	)

	for {
		offset := dec.InputOffset()

		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, &FormatError{Part: documentPart, Reason: "malformed xml", Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}

			stack = append(stack, t.Name.Local)
			depth := len(stack)

			if t.Name.Local == "txbxContent" && skipDepth == 0 {
				skipDepth = depth
			}

			if t.Name.Local == "p" && parent == "body" {
				cur = &Paragraph{
					Index:   len(paragraphs),
					start:   offset,
					depth:   depth,
					prefix:  t.Name.Space,
					openTag: append([]byte(nil), body[offset:dec.InputOffset()]...),
				}
				text.Reset()

				continue
			}

			if cur == nil || skipDepth != 0 {
				continue
			}

			switch t.Name.Local {
			case "pPr":
				if depth == cur.depth+1 {
					propsStart = offset
				}
			case "pStyle":
				if parent == "pPr" && depth == cur.depth+2 {
					cur.StyleID = attr(t, "val")
				}
			case "rPr":
				if parent == "r" && cur.runProps == nil && runStart < 0 {
					runStart = offset
					runDepth = depth
				}
			case "t":
				insideText = parent == "r"
			case "tab":
				if parent == "r" {
					text.WriteByte('\t')
				}
			case "br", "cr":
				if parent == "r" {
					text.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, &FormatError{Part: documentPart, Reason: "unbalanced element " + t.Name.Local}
			}

			depth := len(stack)
			stack = stack[:depth-1]

			if skipDepth != 0 {
				if depth == skipDepth {
					skipDepth = 0
				}

				continue
			}

			if cur == nil {
				continue
			}

			switch {
			case t.Name.Local == "p" && depth == cur.depth:
				cur.end = dec.InputOffset()
				cur.Text = text.String()
				cur.parsedText = cur.Text
				paragraphs = append(paragraphs, cur)
				cur = nil
			case t.Name.Local == "pPr" && depth == cur.depth+1 && propsStart >= 0:
				cur.props = append([]byte(nil), body[propsStart:dec.InputOffset()]...)
				propsStart = -1
			case t.Name.Local == "rPr" && depth == runDepth && runStart >= 0:
				cur.runProps = append([]byte(nil), body[runStart:dec.InputOffset()]...)
				runStart = -1
			case t.Name.Local == "t":
				insideText = false
			}
		case xml.CharData:
			if cur != nil && insideText && skipDepth == 0 {
				text.Write(t)
			}
		}
	}

	if len(stack) != 0 {
		return nil, &FormatError{Part: documentPart, Reason: "unexpected end of part"}
	}

	return paragraphs, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}

	return ""
}

// render produces the markup for a paragraph holding Text as a single run.
func (p *Paragraph) render() []byte {
	var buf bytes.Buffer

	open := p.openTag
	if bytes.HasSuffix(open, []byte("/>")) {
		open = append(open[:len(open)-2:len(open)-2], '>')
	}

	buf.Write(open)
	buf.Write(p.props)

	if p.Text != "" {
		buf.WriteString("<" + p.tag("r") + ">")
		buf.Write(p.runProps)
		p.writeRunContent(&buf)
		buf.WriteString("</" + p.tag("r") + ">")
	}

	buf.WriteString("</" + p.tag("p") + ">")

	return buf.Bytes()
}

func (p *Paragraph) writeRunContent(buf *bytes.Buffer) {
	lines := strings.Split(p.Text, "\n")
	for i, line := range lines {
		if i > 0 {
			buf.WriteString("<" + p.tag("br") + "/>")
		}

		for j, seg := range strings.Split(line, "\t") {
			if j > 0 {
				buf.WriteString("<" + p.tag("tab") + "/>")
			}

			if seg == "" {
				continue
			}

			buf.WriteString("<" + p.tag("t") + ` xml:space="preserve">`)
			_ = xml.EscapeText(buf, []byte(seg))
			buf.WriteString("</" + p.tag("t") + ">")
		}
	}
}

func (p *Paragraph) tag(local string) string {
	if p.prefix == "" {
		return local
	}

	return p.prefix + ":" + local
}
