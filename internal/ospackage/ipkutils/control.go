// Package ipkutils decodes the line-oriented "Packages" control-file index
// published by opkg feeds.
package ipkutils

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/open-edge-platform/firmware-selector/internal/ospackage"
	"github.com/open-edge-platform/firmware-selector/internal/ospackage/deputils"
	"github.com/open-edge-platform/firmware-selector/internal/utils/logger"
)

// maxLineSize bounds one control line. A block holding a longer line is
// dropped; the rest of the feed still parses.
const maxLineSize = 1024 * 1024

// ParseControl reads blocks of "Key: value" lines separated by blank lines.
// Blocks without Package, Version, Architecture or Filename are dropped.
func ParseControl(r io.Reader, feed string) ([]ospackage.PackageInfo, error) {
	log := logger.Logger()

	br := bufio.NewReaderSize(r, 64*1024)

	var (
		pkgs    []ospackage.PackageInfo
		block   = newControlBlock()
		lastKey string
		dropped int
	)
	flush := func() {
		if block.empty() {
			return
		}
		if pi, ok := block.packageInfo(feed); ok {
			pkgs = append(pkgs, pi)
		} else {
			dropped++
			log.Debugf("dropping incomplete control block %q in feed %s", block.fields["Package"], feed)
		}
		block = newControlBlock()
		lastKey = ""
	}

	for {
		line, tooLong, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading control file: %w", err)
		}
		if tooLong {
			log.Warnf("control line over %d bytes in feed %s, dropping block", maxLineSize, feed)
			block.oversized = true
			continue
		}
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		// continuation of the previous field, e.g. multi-line Description
		if line[0] == ' ' || line[0] == '\t' {
			if lastKey != "" {
				block.fields[lastKey] += "\n" + strings.TrimSpace(line)
			}
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		lastKey = strings.TrimSpace(key)
		block.fields[lastKey] = strings.TrimSpace(val)
	}
	flush()

	if dropped > 0 {
		log.Debugf("dropped %d incomplete blocks in feed %s", dropped, feed)
	}
	return pkgs, nil
}

// ParseControlBytes is ParseControl over an in-memory buffer.
func ParseControlBytes(data []byte, feed string) ([]ospackage.PackageInfo, error) {
	return ParseControl(bytes.NewReader(data), feed)
}

// readLine returns the next line without its terminator. A line longer than
// maxLineSize is consumed and reported as tooLong with no content.
func readLine(br *bufio.Reader) (string, bool, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if len(buf) > 0 || tooLong {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

type controlBlock struct {
	fields    map[string]string
	oversized bool
}

func newControlBlock() *controlBlock {
	return &controlBlock{fields: make(map[string]string)}
}

func (b *controlBlock) empty() bool { return len(b.fields) == 0 && !b.oversized }

func (b *controlBlock) packageInfo(feed string) (ospackage.PackageInfo, bool) {
	if b.oversized {
		return ospackage.PackageInfo{}, false
	}
	f := b.fields
	for _, key := range []string{"Package", "Version", "Architecture", "Filename"} {
		if f[key] == "" {
			return ospackage.PackageInfo{}, false
		}
	}
	deps := deputils.ParseDepends(f["Depends"])
	return ospackage.PackageInfo{
		Name:          f["Package"],
		Version:       f["Version"],
		Arch:          f["Architecture"],
		Section:       f["Section"],
		License:       f["License"],
		URL:           f["URL"],
		CPEID:         f["CPE-ID"],
		Filename:      f["Filename"],
		Size:          parseSize(f["Size"]),
		InstalledSize: parseSize(f["Installed-Size"]),
		Checksum:      strings.ToLower(f["SHA256sum"]),
		Description:   f["Description"],
		Depends:       deputils.Names(deps),
		Constraints:   deps,
		Provides:      deputils.ParseNames(f["Provides"]),
		Maintainer:    f["Maintainer"],
		Feed:          feed,
	}, true
}

// parseSize returns 0 for empty or malformed values.
func parseSize(v string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
