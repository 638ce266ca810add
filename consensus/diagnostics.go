package consensus

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sync"

	"github.com/blockberries/freezeguard/types"
)

const (
	diagnosticFilePerm  = 0600
	maxDiagnosticRecord = 64 * 1024
)

// FileDiagnosticSink appends admission-rejection reasons to a file using
// the same length-prefixed, CRC32-checked framing the teacher's WAL used
// for consensus messages (spec.md §7: "accumulated reasons may be sent to
// a diagnostic sink"). There is no replay or segment rotation here — this
// sink is an append-only audit trail for operators, not a recovery log.
type FileDiagnosticSink struct {
	mu  sync.Mutex
	buf *bufio.Writer
	f   *os.File
}

var _ types.DiagnosticSink = (*FileDiagnosticSink)(nil)

// NewFileDiagnosticSink opens (creating if needed) path for appending.
func NewFileDiagnosticSink(path string) (*FileDiagnosticSink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, diagnosticFilePerm)
	if err != nil {
		return nil, fmt.Errorf("consensus: open diagnostic sink %s: %w", path, err)
	}
	return &FileDiagnosticSink{f: f, buf: bufio.NewWriter(f)}, nil
}

// Record appends reason as one framed record and flushes it.
func (s *FileDiagnosticSink) Record(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := []byte(reason)
	checksum := crc32.ChecksumIEEE(data)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := s.buf.Write(lenBuf[:]); err != nil {
		return
	}
	if _, err := s.buf.Write(data); err != nil {
		return
	}
	binary.BigEndian.PutUint32(lenBuf[:], checksum)
	if _, err := s.buf.Write(lenBuf[:]); err != nil {
		return
	}
	_ = s.buf.Flush()
}

// Close flushes and closes the underlying file.
func (s *FileDiagnosticSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.buf.Flush(); err != nil {
		return err
	}
	return s.f.Close()
}

// ReadDiagnostics replays every framed record in path, in order. It is
// meant for operator inspection, not for recovering consensus state.
func ReadDiagnostics(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var records []string
	var lenBuf [4]byte

	for {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			if err == io.EOF {
				break
			}
			return records, err
		}
		length := binary.BigEndian.Uint32(lenBuf[:])
		if length > maxDiagnosticRecord {
			return records, fmt.Errorf("consensus: diagnostic record too large: %d bytes", length)
		}

		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return records, err
		}

		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return records, err
		}
		want := binary.BigEndian.Uint32(lenBuf[:])
		if got := crc32.ChecksumIEEE(data); got != want {
			return records, fmt.Errorf("consensus: diagnostic record checksum mismatch (want %08x, got %08x)", want, got)
		}

		records = append(records, string(data))
	}

	return records, nil
}
