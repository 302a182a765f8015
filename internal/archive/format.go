package archive

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Archive file formats. FormatJSONL is the line-per-schedule export written
// by store.ExportJSONL; FormatV2 prefixes a JSON payload with a one-line
// header carrying a checksum.
const (
	FormatJSONL = 1
	FormatV2    = 2
)

// MaxPayloadSize bounds the decompressed payload of an archive (200MB).
const MaxPayloadSize = 200 * 1024 * 1024

// Header is the plain-text first line of a V2 archive.
type Header struct {
	Version       int               `json:"version"`
	CreatedAt     time.Time         `json:"created_at"`
	Checksum      string            `json:"checksum"`
	ScheduleCount int               `json:"schedule_count"`
	TrialCount    int               `json:"trial_count"`
	Compressed    bool              `json:"compressed"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// DetectFormat peeks at the first line of path to tell a V2 archive from a
// JSONL export.
func DetectFormat(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("reading first line: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, fmt.Errorf("file is empty")
	}

	var h Header
	if json.Unmarshal([]byte(line), &h) == nil && h.Version == FormatV2 {
		return FormatV2, nil
	}
	if line[0] == '{' {
		return FormatJSONL, nil
	}
	return 0, fmt.Errorf("unrecognized archive format")
}

// WriteV2 writes a as a header line followed by its JSON payload, gzipped
// when compress is set. The checksum covers the payload bytes as stored.
func WriteV2(path string, a *Archive, compress bool) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	if compress {
		var buf bytes.Buffer
		gzw := gzip.NewWriter(&buf)
		if _, err := gzw.Write(payload); err != nil {
			return fmt.Errorf("compressing payload: %w", err)
		}
		if err := gzw.Close(); err != nil {
			return fmt.Errorf("closing gzip writer: %w", err)
		}
		payload = buf.Bytes()
	}

	header := Header{
		Version:       FormatV2,
		CreatedAt:     a.CreatedAt,
		Checksum:      checksum(payload),
		ScheduleCount: len(a.Schedules),
		TrialCount:    a.TrialCount(),
		Compressed:    compress,
	}
	headerLine, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling header: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	w.Write(headerLine)
	w.WriteByte('\n')
	w.Write(payload)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	return f.Close()
}

// ReadHeader reads only the header line of a V2 archive.
func ReadHeader(path string) (*Header, error) {
	h, _, err := openV2(path, false)
	return h, err
}

// Verify checks the payload checksum of a V2 archive without decoding it.
func Verify(path string) error {
	_, _, err := openV2(path, true)
	return err
}

// ReadV2 reads a V2 archive, verifies its checksum and decodes the payload.
func ReadV2(path string) (*Archive, error) {
	h, payload, err := openV2(path, true)
	if err != nil {
		return nil, err
	}

	var r io.Reader = bytes.NewReader(payload)
	if h.Compressed {
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gzr.Close()
		r = gzr
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	if len(data) > MaxPayloadSize {
		return nil, fmt.Errorf("payload exceeds maximum size of %d bytes", MaxPayloadSize)
	}

	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing archive payload: %w", err)
	}
	if len(a.Schedules) != h.ScheduleCount {
		return nil, fmt.Errorf("header lists %d schedules, payload has %d", h.ScheduleCount, len(a.Schedules))
	}
	return &a, nil
}

// openV2 parses the header and, when withPayload is set, reads the payload
// and checks it against the header checksum.
func openV2(path string, withPayload bool) (*Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header line: %w", err)
	}

	var h Header
	if err := json.Unmarshal(bytes.TrimSpace(line), &h); err != nil {
		return nil, nil, fmt.Errorf("parsing header: %w", err)
	}
	if h.Version != FormatV2 {
		return nil, nil, fmt.Errorf("expected V2 format, got version %d", h.Version)
	}
	if !withPayload {
		return &h, nil, nil
	}

	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("reading payload: %w", err)
	}
	if got := checksum(payload); got != h.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch: expected %s, got %s", h.Checksum, got)
	}
	return &h, payload, nil
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:])
}
