// Package docxtest builds small .docx packages for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Style ids declared by the generated styles part.
const (
	Normal     = "Normal"
	ListBullet = "ListBullet"
	ListNumber = "ListNumber"
	Heading1   = "Heading1"
)

// Para is one body paragraph. An empty Style leaves the paragraph on the default style.
type Para struct {
	Style string
	Text  string
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/><Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/></Types>`

const rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/></Relationships>`

// Styles is the styles part written into every generated package.
const Styles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/><w:basedOn w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="ListNumber"><w:name w:val="List Number"/><w:basedOn w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/></w:style>` +
	`<w:style w:type="character" w:default="1" w:styleId="DefaultParagraphFont"><w:name w:val="Default Paragraph Font"/></w:style>` +
	`</w:styles>`

// Body renders paragraphs the way Word writes them: properties first, then one run.
func Body(paras ...Para) string {
	var b strings.Builder

	for _, p := range paras {
		b.WriteString("<w:p>")

		if p.Style != "" {
			b.WriteString(`<w:pPr><w:pStyle w:val="` + p.Style + `"/></w:pPr>`)
		}

		if p.Text != "" {
			b.WriteString(`<w:r><w:rPr><w:rFonts w:ascii="Calibri"/></w:rPr><w:t xml:space="preserve">`)
			_ = xml.EscapeText(&b, []byte(p.Text))
			b.WriteString("</w:t></w:r>")
		}

		b.WriteString("</w:p>")
	}

	return b.String()
}

// Document wraps body markup into a complete main document part.
func Document(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body +
		`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr></w:body></w:document>`
}

// Build returns a package holding paras.
func Build(tb testing.TB, paras ...Para) []byte {
	tb.Helper()

	return BuildParts(tb, map[string]string{
		"word/document.xml": Document(Body(paras...)),
		"word/styles.xml":   Styles,
	})
}

// BuildParts returns a package with the package-level parts plus the given ones.
func BuildParts(tb testing.TB, parts map[string]string) []byte {
	tb.Helper()

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	write := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			tb.Fatalf("create %s: %v", name, err)
		}

		if _, err := w.Write([]byte(content)); err != nil {
			tb.Fatalf("write %s: %v", name, err)
		}
	}

	write("[Content_Types].xml", contentTypes)
	write("_rels/.rels", rootRels)
	write("word/_rels/document.xml.rels", documentRels)

	for _, name := range []string{"word/document.xml", "word/styles.xml"} {
		if content, ok := parts[name]; ok {
			write(name, content)
		}
	}

	for name, content := range parts {
		if name == "word/document.xml" || name == "word/styles.xml" {
			continue
		}

		write(name, content)
	}

	if err := zw.Close(); err != nil {
		tb.Fatalf("close package: %v", err)
	}

	return buf.Bytes()
}

// WriteFile builds a package holding paras and stores it as dir/name.
func WriteFile(tb testing.TB, dir, name string, paras ...Para) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(tb, paras...), 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}

	return path
}

// Part returns the uncompressed content of a part, or fails the test.
func Part(tb testing.TB, pkg []byte, name string) string {
	tb.Helper()

	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	if err != nil {
		tb.Fatalf("open package: %v", err)
	}

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			tb.Fatalf("open %s: %v", name, err)
		}
		defer rc.Close()

		var b bytes.Buffer
		if _, err := b.ReadFrom(rc); err != nil {
			tb.Fatalf("read %s: %v", name, err)
		}

		return b.String()
	}

	tb.Fatalf("part %s not found", name)

	return ""
}
