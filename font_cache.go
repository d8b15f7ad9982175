package deck

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// DefaultFontName is the name the bundled Go Regular font is registered under.
const DefaultFontName = "go regular"

// faceKey identifies a cached face by font name and pixel size.
type faceKey struct {
	name string
	size float64
}

// cachedFont is a parsed font together with the bytes it was parsed from.
// data is nil for fonts taken from collections, which cannot be embedded
// into a PDF on their own.
type cachedFont struct {
	font *opentype.Font
	data []byte
}

// FontCache resolves font family names to TrueType fonts. It searches the
// system font directories and any extra directories for .ttf, .otf, .ttc and
// .otc files, caching parsed fonts and rasterizer faces. The bundled Go
// Regular font is always available as a fallback.
type FontCache struct {
	mu      sync.RWMutex
	dirs    []string
	fonts   map[string]*cachedFont
	faces   map[faceKey]font.Face
	scanned bool
}

// NewFontCache creates a FontCache that searches the given directories plus
// the OS default font directories.
func NewFontCache(extraDirs ...string) *FontCache {
	fc := &FontCache{
		dirs:  append(systemFontDirs(), extraDirs...),
		fonts: make(map[string]*cachedFont),
		faces: make(map[faceKey]font.Face),
	}
	if f, err := opentype.Parse(goregular.TTF); err == nil {
		fc.fonts[DefaultFontName] = &cachedFont{font: f, data: goregular.TTF}
	}
	return fc
}

// DefaultFontData returns the bundled Go Regular TrueType font. It covers
// Latin, Greek and Cyrillic.
func DefaultFontData() []byte {
	return goregular.TTF
}

// familyFallbacks lists metric-compatible or Unicode-complete stand-ins for
// families that are often missing on servers.
var familyFallbacks = map[string][]string{
	"arial":           {"arial unicode ms", "liberation sans", "arimo", "dejavu sans"},
	"helvetica":       {"liberation sans", "arimo", "dejavu sans"},
	"times new roman": {"liberation serif", "tinos", "dejavu serif"},
	"courier new":     {"liberation mono", "cousine", "dejavu sans mono"},
	"verdana":         {"dejavu sans"},
}

// unicodeFamilies lists commonly installed fonts with broad script coverage,
// most complete first.
var unicodeFamilies = []string{
	"arial unicode ms",
	"noto sans",
	"dejavu sans",
	"freesans",
	"droid sans fallback",
}

// UnicodeFontData returns the first embeddable font of unicodeFamilies and
// the family it was found under. ok is false when none is installed.
func (fc *FontCache) UnicodeFontData() (data []byte, family string, ok bool) {
	for _, name := range unicodeFamilies {
		if data, ok := fc.FontData(name); ok {
			return data, name, true
		}
	}
	return nil, "", false
}

// Face returns a face for the named family at sizePx pixels. Unknown families
// fall back to an installed Unicode font, then to Go Regular and, should that fail to parse, to basicfont.
func (fc *FontCache) Face(name string, sizePx float64) font.Face {
	if sizePx <= 0 {
		sizePx = DefaultFontSize
	}
	f, resolved := fc.lookup(name)
	if f == nil {
		return basicfont.Face7x13
	}
	key := faceKey{name: resolved, size: sizePx}

	fc.mu.RLock()
	face, ok := fc.faces[key]
	fc.mu.RUnlock()
	if ok {
		return face
	}

	face, err := opentype.NewFace(f.font, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}

	fc.mu.Lock()
	fc.faces[key] = face
	fc.mu.Unlock()
	return face
}

// FontData returns the raw TrueType bytes of the named family, resolving
// fallbacks. ok is false when only a collection member or a CFF-flavored
// OpenType font is available.
func (fc *FontCache) FontData(name string) (data []byte, ok bool) {
	f, _ := fc.lookupExact(name)
	if f == nil || !isTrueType(f.data) {
		return nil, false
	}
	return f.data, true
}

// lookup finds name, its fallbacks, a Unicode font or the default font,
// returning the cache key it was found under.
func (fc *FontCache) lookup(name string) (*cachedFont, string) {
	if f, key := fc.lookupExact(name); f != nil {
		return f, key
	}
	for _, alt := range unicodeFamilies {
		if f, key := fc.lookupExact(alt); f != nil {
			return f, key
		}
	}
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.fonts[DefaultFontName], DefaultFontName
}

func (fc *FontCache) lookupExact(name string) (*cachedFont, string) {
	fc.ensureScanned()

	lower := strings.ToLower(strings.TrimSpace(name))
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	if f, ok := fc.fonts[lower]; ok {
		return f, lower
	}
	for _, alt := range familyFallbacks[lower] {
		if f, ok := fc.fonts[alt]; ok {
			return f, alt
		}
	}
	return nil, ""
}

// LoadFont loads a TrueType/OpenType font file and registers it under name.
// Returns an error if the file exceeds maxFontFileSize.
func (fc *FontCache) LoadFont(name string, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > maxFontFileSize {
		return fmt.Errorf("font file too large: %d bytes (max %d)", info.Size(), maxFontFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return fc.LoadFontData(name, data)
}

// LoadFontData registers a TrueType/OpenType font from raw bytes.
func (fc *FontCache) LoadFontData(name string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return err
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	entry := &cachedFont{font: f, data: data}
	fc.fonts[strings.ToLower(name)] = entry
	fc.registerByFamilyName(entry)
	return nil
}

func (fc *FontCache) ensureScanned() {
	fc.mu.RLock()
	scanned := fc.scanned
	fc.mu.RUnlock()
	if scanned {
		return
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.scanned {
		return
	}
	fc.scanned = true

	for _, dir := range fc.dirs {
		fc.scanDir(dir, 0)
	}
}

// maxFontScanDepth limits recursive directory traversal when scanning for fonts.
const maxFontScanDepth = 3

// maxFontFileSize limits the size of individual font files loaded into memory.
const maxFontFileSize = 20 << 20 // 20 MB

func (fc *FontCache) scanDir(dir string, depth int) {
	if depth > maxFontScanDepth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			fc.scanDir(filepath.Join(dir, entry.Name()), depth+1)
			continue
		}
		lower := strings.ToLower(entry.Name())
		ext := filepath.Ext(lower)
		if ext != ".ttf" && ext != ".otf" && ext != ".ttc" && ext != ".otc" {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.Size() > maxFontFileSize {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		base := strings.TrimSuffix(lower, ext)
		if ext == ".ttc" || ext == ".otc" {
			fc.loadCollection(data, base)
			continue
		}
		f, err := opentype.Parse(data)
		if err != nil {
			continue
		}
		cf := &cachedFont{font: f, data: data}
		// Keep fonts registered earlier, e.g. through LoadFontData.
		if _, ok := fc.fonts[base]; !ok {
			fc.fonts[base] = cf
		}
		fc.registerByFamilyName(cf)
	}
}

// loadCollection registers each member of a TTC/OTC by its family name.
func (fc *FontCache) loadCollection(data []byte, base string) {
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return
	}
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			continue
		}
		cf := &cachedFont{font: f}
		if i == 0 {
			fc.fonts[base] = cf
		}
		fc.registerByFamilyName(cf)
	}
}

// registerByFamilyName registers f under its family and full names without
// replacing an existing entry. Callers hold fc.mu.
func (fc *FontCache) registerByFamilyName(cf *cachedFont) {
	for _, id := range []sfnt.NameID{sfnt.NameIDFamily, sfnt.NameIDFull} {
		name, err := cf.font.Name(nil, id)
		if err != nil || name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := fc.fonts[key]; !ok {
			fc.fonts[key] = cf
		}
	}
}

// isTrueType reports whether data is a single TrueType-outline font, the only
// flavor the PDF encoder can subset.
func isTrueType(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	head := data[:4]
	return bytes.Equal(head, []byte{0, 1, 0, 0}) || bytes.Equal(head, []byte("true"))
}

// systemFontDirs returns OS-specific font directories.
func systemFontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		dirs := []string{filepath.Join(windir, "Fonts")}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	case "darwin":
		dirs := []string{"/System/Library/Fonts", "/Library/Fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		return dirs
	default: // linux, freebsd, etc.
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"), filepath.Join(home, ".fonts"))
		}
		return dirs
	}
}
