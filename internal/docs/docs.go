// Package docs extracts a plain-text or HTML preview from uploaded
// documents. It is a narrow best-effort collaborator: failures surface
// as recoverable errors shown to the user, never as fatal conditions.
package docs

import (
	"archive/zip"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrUnsupportedFormat is returned for extensions without a reader.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extract returns a textual preview of the document at path,
// dispatching on the file extension.
func Extract(path string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "docx":
		return extractZipXML(path, "word/document.xml")
	case "odt", "ods":
		return extractZipXML(path, "content.xml")
	case "rtf":
		return extractRTF(path)
	case "csv":
		return extractCSV(path)
	case "txt", "html":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", filepath.Base(path), err)
		}
		return string(b), nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// extractZipXML pulls the character data out of one XML member of a
// zip container, which covers both OOXML (docx) and ODF (odt/ods)
// documents. Paragraph-ish closing elements become newlines.
func extractZipXML(path, member string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer r.Close()

	var f *zip.File
	for _, candidate := range r.File {
		if candidate.Name == member {
			f = candidate
			break
		}
	}
	if f == nil {
		return "", fmt.Errorf("%s: missing %s", filepath.Base(path), member)
	}

	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var sb strings.Builder
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "h", "table-row":
				sb.WriteByte('\n')
			case "table-cell", "tab":
				sb.WriteByte('\t')
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

var rtfControl = regexp.MustCompile(`\\[a-zA-Z]+-?\d* ?|[{}]|\\'[0-9a-fA-F]{2}`)

// extractRTF strips control words and group braces, leaving the plain
// text runs. Good enough for a preview; not a full RTF parser.
func extractRTF(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	text := rtfControl.ReplaceAllString(string(b), "")
	return strings.TrimSpace(text), nil
}

// extractCSV renders the sheet as an HTML table, mirroring the
// spreadsheet-to-HTML preview of the upload flow.
func extractCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var sb strings.Builder
	sb.WriteString("<table>\n")
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
		}
		sb.WriteString("<tr>")
		for _, cell := range record {
			sb.WriteString("<td>")
			sb.WriteString(html.EscapeString(cell))
			sb.WriteString("</td>")
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</table>")
	return sb.String(), nil
}
