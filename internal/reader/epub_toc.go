package reader

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

// NCX XML structures for parsing toc.ncx
type ncx struct {
	NavMap navMap `xml:"navMap"`
}

type navMap struct {
	NavPoints []navPoint `xml:"navPoint"`
}

type navPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     navLabel   `xml:"navLabel"`
	Content   navContent `xml:"content"`
	Children  []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

// stripFragment drops the "#anchor" part of an href.
func stripFragment(href string) string {
	if idx := strings.Index(href, "#"); idx != -1 {
		return href[:idx]
	}
	return href
}

// buildTOCHrefMap returns the title of every document the NCX points to,
// keyed by href with and without its directory.
func buildTOCHrefMap(toc *ncx) map[string]string {
	result := make(map[string]string)
	if toc == nil {
		return result
	}

	var extract func(points []navPoint)
	extract = func(points []navPoint) {
		for _, np := range points {
			title := strings.TrimSpace(np.Label.Text)
			for _, href := range []string{np.Content.Src, stripFragment(np.Content.Src), path.Base(stripFragment(np.Content.Src))} {
				if _, exists := result[href]; !exists {
					result[href] = title
				}
			}
			extract(np.Children)
		}
	}
	extract(toc.NavMap.NavPoints)

	return result
}

func findAndReadNCX(filename string, book *epub.Rootfile) ([]byte, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var ncxPath string
	for _, item := range book.Manifest.Items {
		if item.MediaType == "application/x-dtbncx+xml" {
			ncxPath = item.HREF
			break
		}
	}
	if ncxPath == "" {
		for _, f := range zr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".ncx") {
				ncxPath = f.Name
				break
			}
		}
	}

	if ncxPath == "" {
		return nil, fmt.Errorf("no NCX file found in EPUB")
	}

	for _, f := range zr.File {
		if f.Name == ncxPath || strings.HasSuffix(f.Name, "/"+ncxPath) || path.Base(f.Name) == path.Base(ncxPath) {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}

	return nil, fmt.Errorf("NCX file %s not found in archive", ncxPath)
}

// flattenNavPoints lists nav points depth first. spine maps document hrefs
// to their offset in the book's text; unknown documents point at 0.
func flattenNavPoints(points []navPoint, spine map[string]int, level int) []TOCEntry {
	var entries []TOCEntry

	for _, np := range points {
		href := stripFragment(np.Content.Src)

		loc, ok := spine[href]
		if !ok {
			loc = spine[path.Base(href)]
		}

		entries = append(entries, TOCEntry{
			Title:    strings.TrimSpace(np.Label.Text),
			Location: loc,
			Level:    level,
		})
		if len(np.Children) > 0 {
			entries = append(entries, flattenNavPoints(np.Children, spine, level+1)...)
		}
	}

	return entries
}
