// Package docx reads and rewrites the body paragraphs of a WordprocessingML (.docx) package.
//
// Only word/document.xml is ever rewritten, and only the paragraphs whose text was replaced;
// every other byte of the part and every other part of the package are carried over as is.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	documentPart = "word/document.xml"
	stylesPart   = "word/styles.xml"
)

// ContentType is the media type of a .docx package.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Paragraph is a body-level paragraph of the document.
type Paragraph struct {
	Index   int
	StyleID string
	Style   string // display name resolved through word/styles.xml
	Text    string

	parsedText string
	start, end int64
	depth      int
	prefix     string
	openTag    []byte
	props      []byte
	runProps   []byte
}

// IsList reports whether the paragraph uses one of the "List ..." styles.
func (p Paragraph) IsList() bool {
	return strings.HasPrefix(p.Style, "List")
}

// Document is an opened .docx package.
type Document struct {
	raw        []byte
	zr         *zip.Reader
	body       []byte
	paragraphs []*Paragraph
	edited     bool
}

// Open reads the package at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	return Parse(data)
}

// Read consumes r entirely and parses the package.
func Read(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	return Parse(data)
}

// Parse parses a package held in memory. data must not be modified afterwards.
func Parse(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &FormatError{Part: "package", Reason: "not a zip archive", Err: err}
	}

	body, err := readPart(zr, documentPart)
	if err != nil {
		return nil, err
	}

	if body == nil {
		return nil, &FormatError{Part: documentPart, Reason: "missing main document part"}
	}

	styleXML, err := readPart(zr, stylesPart)
	if err != nil {
		return nil, err
	}

	styles, err := parseStyles(styleXML)
	if err != nil {
		return nil, err
	}

	paragraphs, err := parseBody(body)
	if err != nil {
		return nil, err
	}

	for _, p := range paragraphs {
		p.Style = styles.resolve(p.StyleID)
	}

	return &Document{
		raw:        data,
		zr:         zr,
		body:       body,
		paragraphs: paragraphs,
	}, nil
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, &FormatError{Part: name, Reason: "cannot open part", Err: err}
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, &FormatError{Part: name, Reason: "cannot read part", Err: err}
		}

		return data, nil
	}

	return nil, nil
}

// Paragraphs returns the body paragraphs in document order.
func (d *Document) Paragraphs() []Paragraph {
	out := make([]Paragraph, len(d.paragraphs))
	for i, p := range d.paragraphs {
		out[i] = *p
	}

	return out
}

// SetText replaces the whole text of paragraph i with a single run. Paragraph properties
// and the formatting of the first run are kept.
func (d *Document) SetText(i int, text string) error {
	if i < 0 || i >= len(d.paragraphs) {
		return fmt.Errorf("%w: %d", ErrParagraphOutOfRange, i)
	}

	p := d.paragraphs[i]
	p.Text = text

	d.edited = false
	for _, para := range d.paragraphs {
		if para.changed() {
			d.edited = true

			break
		}
	}

	return nil
}

// Bytes returns the package with all edits applied.
func (d *Document) Bytes() ([]byte, error) {
	if !d.edited {
		return d.raw, nil
	}

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// WriteTo writes the package with all edits applied.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if !d.edited {
		return io.Copy(w, bytes.NewReader(d.raw))
	}

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	for _, f := range d.zr.File {
		if f.Name != documentPart {
			if err := zw.Copy(f); err != nil {
				return cw.n, fmt.Errorf("failed to copy part %s: %w", f.Name, err)
			}

			continue
		}

		header := &zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		}

		pw, err := zw.CreateHeader(header)
		if err != nil {
			return cw.n, fmt.Errorf("failed to create part %s: %w", f.Name, err)
		}

		if _, err := pw.Write(d.renderBody()); err != nil {
			return cw.n, fmt.Errorf("failed to write part %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to finalize package: %w", err)
	}

	return cw.n, nil
}

// Save writes the package to path.
func (d *Document) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := d.WriteTo(f); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

func (d *Document) renderBody() []byte {
	var buf bytes.Buffer

	last := int64(0)

	for _, p := range d.paragraphs {
		if !p.changed() {
			continue
		}

		buf.Write(d.body[last:p.start])
		buf.Write(p.render())
		last = p.end
	}

	buf.Write(d.body[last:])

	return buf.Bytes()
}

func (p *Paragraph) changed() bool {
	return p.Text != p.parsedText
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)

	return n, err
}
