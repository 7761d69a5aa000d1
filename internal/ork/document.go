// Package ork reads OpenRocket design documents (.ork files).
//
// A .ork file is either plain XML or a zip archive holding a rocket.ork
// member. Document hides that difference, checks the preconditions for
// extraction and exposes descendant tag lookups plus a typed component tree.
package ork

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
)

// ArchiveMember is the design document name inside a zipped .ork file.
const ArchiveMember = "rocket.ork"

// CGLabel is the column every English simulation export contains.
const CGLabel = "CG location"

// Document is an opened design document. Close releases the temporary
// directory used when the input was a zip archive.
type Document struct {
	// Source is the path the user supplied.
	Source string
	// Path is the XML file actually parsed; it differs from Source for archives.
	Path string

	doc    *etree.Document
	tmpDir string
}

// Open reads the .ork file at path, unwrapping a zip archive when needed.
// The caller must Close the returned Document.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &PreconditionError{
				Path:        path,
				Remediation: "Check the path and try again.",
				Err:         ErrFileNotFound,
			}
		}
		return nil, fmt.Errorf("ork: reading %s: %w", path, err)
	}

	d := &Document{Source: path, Path: path}
	if isZip(data) {
		if err := d.unzip(data); err != nil {
			d.Close()
			return nil, err
		}
		if data, err = os.ReadFile(d.Path); err != nil {
			d.Close()
			return nil, fmt.Errorf("ork: reading %s: %w", d.Path, err)
		}
	}

	if err := d.parse(data); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// Parse builds a Document from in-memory XML. It is used for tests and for
// callers that already hold the document bytes.
func Parse(name string, data []byte) (*Document, error) {
	d := &Document{Source: name, Path: name}
	if err := d.parse(data); err != nil {
		return nil, err
	}
	return d, nil
}

// Close removes any temporary files created while opening the document.
// It is safe to call more than once.
func (d *Document) Close() error {
	if d == nil || d.tmpDir == "" {
		return nil
	}
	err := os.RemoveAll(d.tmpDir)
	d.tmpDir = ""
	return err
}

func isZip(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

func (d *Document) unzip(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("ork: opening archive %s: %w", d.Source, err)
	}

	var member *zip.File
	for _, f := range zr.File {
		if f.Name == ArchiveMember {
			member = f
			break
		}
	}
	if member == nil {
		return &PreconditionError{Path: d.Source, Err: ErrMissingArchiveMember}
	}

	dir, err := os.MkdirTemp("", "rocketserializer-*")
	if err != nil {
		return fmt.Errorf("ork: creating extraction directory: %w", err)
	}
	d.tmpDir = dir
	d.Path = filepath.Join(dir, ArchiveMember)

	rc, err := member.Open()
	if err != nil {
		return fmt.Errorf("ork: opening %s in %s: %w", ArchiveMember, d.Source, err)
	}
	defer rc.Close()

	out, err := os.Create(d.Path)
	if err != nil {
		return fmt.Errorf("ork: extracting %s: %w", ArchiveMember, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("ork: extracting %s: %w", ArchiveMember, err)
	}
	return out.Close()
}

func (d *Document) parse(data []byte) error {
	if !utf8.Valid(data) {
		return &PreconditionError{
			Path:        d.Source,
			Remediation: "Save the file again from OpenRocket with UTF-8 encoding.",
			Err:         ErrNotUTF8,
		}
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("ork: parsing %s: %w", d.Source, err)
	}
	d.doc = doc
	return nil
}

// Validate checks that the document holds a recorded simulation labelled in
// English. Extraction must not start when it fails.
func (d *Document) Validate() error {
	if d.Find("datapoint") == nil {
		return &PreconditionError{
			Path:        d.Source,
			Remediation: "Open the file in OpenRocket, run at least one simulation and save it again.",
			Err:         ErrNoSimulationData,
		}
	}
	branch := d.Find("databranch")
	if branch == nil {
		return &PreconditionError{
			Path:        d.Source,
			Remediation: "Open the file in OpenRocket, run at least one simulation and save it again.",
			Err:         ErrNoSimulationData,
		}
	}
	for _, label := range d.Labels() {
		if label == CGLabel {
			return nil
		}
	}
	return &PreconditionError{
		Path:        d.Source,
		Remediation: "Switch OpenRocket's language to English, re-run the simulation and save the file again.",
		Err:         ErrUnsupportedLanguage,
	}
}

// Labels returns the column labels of the first recorded data branch.
func (d *Document) Labels() []string {
	branch := d.Find("databranch")
	if branch == nil {
		return nil
	}
	types := branch.SelectAttrValue("types", "")
	if types == "" {
		return nil
	}
	labels := strings.Split(types, ",")
	for i := range labels {
		labels[i] = strings.TrimSpace(labels[i])
	}
	return labels
}

// Datapoints returns the raw text of every datapoint of the first data branch.
func (d *Document) Datapoints() []string {
	branch := d.Find("databranch")
	if branch == nil {
		return nil
	}
	points := branch.FindElements(".//datapoint")
	out := make([]string, 0, len(points))
	for _, p := range points {
		out = append(out, p.Text())
	}
	return out
}

// Root returns the document's <rocket> element.
func (d *Document) Root() (*etree.Element, error) {
	el := d.Find("rocket")
	if el == nil {
		return nil, &PreconditionError{Path: d.Source, Err: ErrNoRocket}
	}
	return el, nil
}

// Find returns the first element with the given tag anywhere in the
// document, or nil.
func (d *Document) Find(tag string) *etree.Element {
	if d.doc == nil {
		return nil
	}
	return d.doc.FindElement("//" + tag)
}

// FindAll returns every element with the given tag in document order.
func (d *Document) FindAll(tag string) []*etree.Element {
	if d.doc == nil {
		return nil
	}
	return d.doc.FindElements("//" + tag)
}

// Lookup returns el's direct child named tag, falling back to the first
// descendant with that tag. It returns nil when el is nil or nothing matches.
func Lookup(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	if c := el.SelectElement(tag); c != nil {
		return c
	}
	return el.FindElement(".//" + tag)
}

// Text returns the trimmed text of Lookup(el, tag).
func Text(el *etree.Element, tag string) (string, bool) {
	c := Lookup(el, tag)
	if c == nil {
		return "", false
	}
	return strings.TrimSpace(c.Text()), true
}

// Float parses Lookup(el, tag) as a number. A missing tag or unparsable
// value yields a *FieldError naming the component.
func Float(el *etree.Element, tag string) (float64, error) {
	s, ok := Text(el, tag)
	if !ok {
		return 0, &FieldError{Component: Name(el), Field: tag, Err: ErrMissingField}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FieldError{Component: Name(el), Field: tag, Value: s, Err: ErrInvalidValue}
	}
	return v, nil
}

// OptionalFloat is like Float but returns nil for an absent tag.
func OptionalFloat(el *etree.Element, tag string) (*float64, error) {
	if _, ok := Text(el, tag); !ok {
		return nil, nil
	}
	v, err := Float(el, tag)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// FloatOr returns Float(el, tag) or def when the tag is missing or invalid.
func FloatOr(el *etree.Element, tag string, def float64) float64 {
	v, err := Float(el, tag)
	if err != nil {
		return def
	}
	return v
}

// Attr parses attribute name of el as a number. Missing, unparsable and
// non-finite values yield def.
func Attr(el *etree.Element, name string, def float64) float64 {
	if el == nil {
		return def
	}
	s := el.SelectAttrValue(name, "")
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// Name returns the <name> of a component element, or its tag when unnamed.
func Name(el *etree.Element) string {
	if el == nil {
		return ""
	}
	if n := el.SelectElement("name"); n != nil {
		return strings.TrimSpace(n.Text())
	}
	return el.Tag
}
