package reader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	sampleBytes = 8192 // First 8KB for charset detection
	utf8Name    = "utf-8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// charsetAliases maps chardet names that htmlindex spells differently.
var charsetAliases = map[string]string{
	"gb-18030": "gb18030",
}

// detectEncoding guesses the character set of sample, the first bytes of a file.
func detectEncoding(sample []byte) string {
	switch {
	case bytes.HasPrefix(sample, utf8BOM):
		return utf8Name
	case bytes.HasPrefix(sample, []byte{0xFF, 0xFE}):
		return "utf-16le"
	case bytes.HasPrefix(sample, []byte{0xFE, 0xFF}):
		return "utf-16be"
	}

	if validUTF8Prefix(sample) {
		return utf8Name
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || result == nil {
		return utf8Name
	}
	name := strings.ToLower(result.Charset)
	if alias, ok := charsetAliases[name]; ok {
		name = alias
	}
	if _, err := htmlindex.Get(name); err != nil {
		return utf8Name
	}
	return name
}

// validUTF8Prefix reports whether sample is UTF-8, allowing the sample to
// end partway through a character.
func validUTF8Prefix(sample []byte) bool {
	for i := 0; i < utf8.UTFMax && len(sample) > 0; i++ {
		if utf8.Valid(sample) {
			return true
		}
		r, _ := utf8.DecodeLastRune(sample)
		if r != utf8.RuneError {
			return false
		}
		sample = sample[:len(sample)-1]
	}
	return utf8.Valid(sample)
}

// lookupEncoding resolves a charset name.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, utf8Name) {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	return enc, nil
}

// readSample returns the first sampleBytes of filename.
func readSample(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, sampleBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

// decodeFile reads filename and converts it from enc to UTF-8.
func decodeFile(filename string, enc encoding.Encoding) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(transform.NewReader(f, unicode.BOMOverride(enc.NewDecoder())))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return data, nil
}
