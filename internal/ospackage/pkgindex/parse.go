package pkgindex

import (
	"fmt"
	"path"
	"strings"

	"github.com/open-edge-platform/firmware-selector/internal/ospackage"
	"github.com/open-edge-platform/firmware-selector/internal/ospackage/adbutils"
	"github.com/open-edge-platform/firmware-selector/internal/ospackage/ipkutils"
)

// BinaryIndexName is the file name of binary feed indexes.
const BinaryIndexName = "packages.adb"

// IsBinaryIndex reports whether a feed file name or URL refers to a binary
// index.
func IsBinaryIndex(name string) bool {
	return strings.HasSuffix(path.Base(name), ".adb")
}

// ParseFeed decodes the bytes of one feed index. The decoder is chosen by
// file name: *.adb goes to the binary decoder, anything else is treated as a
// control file, optionally gz or xz compressed.
func ParseFeed(name string, data []byte, feed string) ([]ospackage.PackageInfo, error) {
	if IsBinaryIndex(name) {
		idx, err := adbutils.ParseIndex(data, feed)
		if err != nil {
			return nil, fmt.Errorf("decoding binary index %s: %w", path.Base(name), err)
		}
		return idx.Packages, nil
	}

	text, err := ipkutils.DecompressIndex(data)
	if err != nil {
		return nil, fmt.Errorf("decompressing index %s: %w", path.Base(name), err)
	}
	pkgs, err := ipkutils.ParseControlBytes(text, feed)
	if err != nil {
		return nil, fmt.Errorf("parsing index %s: %w", path.Base(name), err)
	}
	return pkgs, nil
}
