// Package mo loads and validates GNU gettext MO (message object)
// binary catalogues: the compiled form of a .po translation source.
// See the "MO Files" node of the GNU gettext manual for the on-disk
// format this package implements.
package mo

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/olanti-p/go-libintl/plf"
)

const (
	magicLE uint32 = 0x950412de
	magicBE uint32 = 0xde120495

	headerSize = 20
)

// Catalogue is one loaded MO file: a validated byte buffer plus the
// table offsets and plural-forms rule needed to answer string queries
// against it. A Catalogue is immutable once returned by Load/LoadFile.
type Catalogue struct {
	buf     []byte
	view    view
	mapping *fileMapping

	numStrings     uint32
	offsOrigTable  uint32
	offsTransTable uint32

	numPluralForms uint32
	pluralRules    *plf.Node

	metadata map[string]string
}

// NumStrings returns the number of msgid/translation entries in the
// catalogue, including the metadata entry at index 0.
func (c *Catalogue) NumStrings() uint32 {
	return c.numStrings
}

// Metadata returns the value of a header from the catalogue's metadata
// entry (e.g. "language", "content-type"), with the header name
// matched case-insensitively. The second return value is false if the
// header is absent.
func (c *Catalogue) Metadata(header string) (string, bool) {
	v, ok := c.metadata[strings.ToLower(header)]
	return v, ok
}

// LoadFile reads and validates the MO file at path. Catalogues backed
// by a file large enough to plausibly hold a valid MO header are
// mmap'd for zero-copy access to the translation data; anything
// smaller is read into memory directly, since a file that size can
// only ever fail with "not a MO file" and isn't worth a mapping
// syscall for.
func LoadFile(path string) (*Catalogue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to open file")
	}

	m := &fileMapping{}
	if fi.Size() >= headerSize {
		if err := m.tryMap(f, fi.Size()); err == nil {
			runtime.SetFinalizer(m, (*fileMapping).Close)
		}
	}
	if m.data == nil {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to open file")
		}
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open file")
		}
		m.data = data
	}

	cat, err := load(m.data, m)
	if err != nil {
		m.Close()
		return nil, err
	}
	return cat, nil
}

// Load validates and parses MO data already resident in memory. The
// returned Catalogue retains data for its entire lifetime; callers
// must not mutate it afterwards.
func Load(data []byte) (*Catalogue, error) {
	return load(data, nil)
}

func load(data []byte, m *fileMapping) (*Catalogue, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("not a MO file")
	}

	magic := binary.LittleEndian.Uint32(data[0:4])
	var order binary.ByteOrder
	switch magic {
	case magicLE:
		order = binary.LittleEndian
	case magicBE:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("not a MO file")
	}
	v := view{buf: data, order: order}

	version, err := v.u32At(4)
	if err != nil {
		return nil, fmt.Errorf("not a MO file")
	}
	if version>>16 != 0 {
		return nil, fmt.Errorf("unsupported MO version")
	}
	numStrings, err := v.u32At(8)
	if err != nil {
		return nil, fmt.Errorf("not a MO file")
	}
	offsOrig, err := v.u32At(12)
	if err != nil {
		return nil, fmt.Errorf("not a MO file")
	}
	offsTrans, err := v.u32At(16)
	if err != nil {
		return nil, fmt.Errorf("not a MO file")
	}

	tableBytes := uint64(numStrings) * 8
	if uint64(offsOrig)+tableBytes > uint64(len(data)) {
		return nil, fmt.Errorf("original strings table out of bounds")
	}
	if uint64(offsTrans)+tableBytes > uint64(len(data)) {
		return nil, fmt.Errorf("translated strings table out of bounds")
	}

	if err := validateStringTable(v, offsOrig, numStrings); err != nil {
		return nil, err
	}
	if err := validateStringTable(v, offsTrans, numStrings); err != nil {
		return nil, err
	}

	cat := &Catalogue{
		buf:            data,
		view:           v,
		mapping:        m,
		numStrings:     numStrings,
		offsOrigTable:  offsOrig,
		offsTransTable: offsTrans,
	}

	if numStrings == 0 {
		return nil, fmt.Errorf("missing metadata")
	}
	origInfo := v.stringInfoAtUnsafe(offsOrig)
	if origInfo.length != 0 {
		return nil, fmt.Errorf("missing metadata")
	}
	transInfo := v.stringInfoAtUnsafe(offsTrans)
	metadataBlock := data[transInfo.address : transInfo.address+transInfo.length]

	cat.metadata = parseMetadataHeaders(metadataBlock)

	if err := cat.checkEncoding(); err != nil {
		return nil, err
	}
	numPluralForms, rules, err := cat.parsePluralFormsHeader()
	if err != nil {
		return nil, err
	}
	cat.numPluralForms = numPluralForms
	cat.pluralRules = rules

	if err := cat.checkStringPlurals(); err != nil {
		return nil, err
	}

	return cat, nil
}

// validateStringTable checks that every entry in the table starting at
// tableOffset references a range fully inside the buffer and ends in a
// NUL byte.
func validateStringTable(v view, tableOffset, numStrings uint32) error {
	for i := uint32(0); i < numStrings; i++ {
		entryAddr := tableOffset + 8*i
		info := v.stringInfoAtUnsafe(entryAddr)
		if uint64(info.address)+uint64(info.length)+1 > uint64(v.size()) {
			return fmt.Errorf(
				"string_info at 0x%x: extends beyond EOF (len:0x%x addr:0x%x file size:0x%x)",
				entryAddr, info.length, info.address, v.size(),
			)
		}
		if v.u8AtUnsafe(info.address+info.length) != 0 {
			return fmt.Errorf("string_info at 0x%x: missing null terminator", entryAddr)
		}
	}
	return nil
}

func (c *Catalogue) checkEncoding() error {
	contentType, ok := c.metadata["content-type"]
	if !ok || !hasUTF8Charset(contentType) {
		return fmt.Errorf("unexpected value in Content-Type header (wrong charset?)")
	}
	return nil
}

func hasUTF8Charset(contentType string) bool {
	lower := strings.ToLower(contentType)
	idx := strings.LastIndex(lower, "charset=")
	if idx < 0 {
		return false
	}
	return contentType[idx+len("charset="):] == "UTF-8"
}

// parsePluralFormsHeader extracts nplurals/plural from the
// Plural-Forms metadata header, defaulting to a single plural form
// (nplurals=1; plural=0) when the header is absent.
func (c *Catalogue) parsePluralFormsHeader() (uint32, *plf.Node, error) {
	header, ok := c.metadata["plural-forms"]
	if !ok {
		rules, _ := plf.Parse("0")
		return 1, rules, nil
	}

	n, exprStr, err := splitPluralFormsHeader(header)
	if err != nil {
		return 0, nil, err
	}
	if n < 1 {
		return 0, nil, fmt.Errorf("invalid nplurals")
	}
	rules, err := plf.Parse(exprStr)
	if err != nil {
		return 0, nil, err
	}
	return n, rules, nil
}

func splitPluralFormsHeader(header string) (uint32, string, error) {
	nPart, rest, ok := strings.Cut(header, ";")
	if !ok {
		return 0, "", fmt.Errorf("malformed Plural-Forms header: %q", header)
	}
	nKey, nVal, ok := strings.Cut(nPart, "=")
	if !ok || strings.TrimSpace(nKey) != "nplurals" {
		return 0, "", fmt.Errorf("malformed Plural-Forms header: %q", header)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(nVal), 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("malformed Plural-Forms header: %q", header)
	}

	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, ";")
	pKey, pVal, ok := strings.Cut(rest, "=")
	if !ok || strings.TrimSpace(pKey) != "plural" {
		return 0, "", fmt.Errorf("malformed Plural-Forms header: %q", header)
	}
	return uint32(n), strings.TrimSpace(pVal), nil
}

// checkStringPlurals verifies that every translation whose original
// side declares a msgid_plural (singular\x00plural) carries exactly
// numPluralForms NUL-separated translation forms.
func (c *Catalogue) checkStringPlurals() error {
	for i := uint32(1); i < c.numStrings; i++ {
		origInfo := c.view.stringInfoAtUnsafe(c.offsOrigTable + 8*i)
		orig := c.buf[origInfo.address : origInfo.address+origInfo.length]
		if !bytes.Contains(orig, []byte{0}) {
			continue
		}
		transInfo := c.view.stringInfoAtUnsafe(c.offsTransTable + 8*i)
		trans := c.buf[transInfo.address : transInfo.address+transInfo.length]
		forms := uint32(bytes.Count(trans, []byte{0})) + 1
		if forms != c.numPluralForms {
			return fmt.Errorf(
				"translation %d: expected %d plural forms, got %d",
				i, c.numPluralForms, forms,
			)
		}
	}
	return nil
}

// parseMetadataHeaders parses "Header-Name: value" lines separated by
// \n, matching the layout of a gettext metadata block. Continuation
// lines (no colon) are appended to the previous header's value.
func parseMetadataHeaders(block []byte) map[string]string {
	headers := make(map[string]string)
	lastKey := ""
	for _, line := range strings.Split(string(block), "\n") {
		item := strings.TrimSpace(line)
		if item == "" {
			continue
		}
		if key, val, ok := strings.Cut(item, ":"); ok {
			key = strings.ToLower(strings.TrimSpace(key))
			headers[key] = strings.TrimSpace(val)
			lastKey = key
		} else if lastKey != "" {
			headers[lastKey] += "\n" + item
		}
	}
	return headers
}

// NthOrigString returns the original (msgid) bytes of entry n. For a
// plural entry, only the singular form is returned — the portion up to
// the first internal NUL — since that is the library's sort/lookup
// key.
func (c *Catalogue) NthOrigString(n uint32) []byte {
	info := c.view.stringInfoAtUnsafe(c.offsOrigTable + 8*n)
	return c.view.cstrAtUnsafe(info.address)
}

// NthTranslation returns the translation of entry n (its first
// NUL-separated form).
func (c *Catalogue) NthTranslation(n uint32) []byte {
	return c.nthTranslationForm(n, 0)
}

// NthPluralTranslation evaluates the catalogue's plural-forms rule on
// num to select one of entry n's NUL-separated translation forms. An
// out-of-range result (which should not occur for a well-formed file)
// is defensively clamped to form 0.
func (c *Catalogue) NthPluralTranslation(n uint32, num uint64) []byte {
	form := c.pluralRules.Eval(num)
	if form >= uint64(c.numPluralForms) {
		form = 0
	}
	return c.nthTranslationForm(n, int(form))
}

func (c *Catalogue) nthTranslationForm(n uint32, form int) []byte {
	info := c.view.stringInfoAtUnsafe(c.offsTransTable + 8*n)
	addr := info.address
	for form > 0 {
		seg := c.view.cstrAtUnsafe(addr)
		addr += uint32(len(seg)) + 1
		form--
	}
	return c.view.cstrAtUnsafe(addr)
}
