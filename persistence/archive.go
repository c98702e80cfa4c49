package persistence

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Archives are zstd-compressed JSONL: one "match" line followed by one
// "move" line per accepted move, in order.

const (
	entryMatch = "match"
	entryMove  = "move"
)

var ErrBadArchive = errors.New("malformed match archive")

type archiveEntry struct {
	Kind  string       `json:"kind"`
	Match *MatchRecord `json:"match,omitempty"`
	Move  *MoveRecord  `json:"move,omitempty"`
}

// ArchivePath is where SaveArchive puts the archive of roomID.
func ArchivePath(dir, roomID string) string {
	return filepath.Join(dir, fmt.Sprintf("match-%s.jsonl.zst", roomID))
}

// WriteArchive encodes a match and its moves to w.
func WriteArchive(w io.Writer, rec *MatchRecord, moves []MoveRecord) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 128*1024)

	write := func(e archiveEntry) error {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := bw.Write(b); err != nil {
			return err
		}
		return bw.WriteByte('\n')
	}

	if err := write(archiveEntry{Kind: entryMatch, Match: rec}); err != nil {
		_ = enc.Close()
		return err
	}
	for i := range moves {
		if err := write(archiveEntry{Kind: entryMove, Move: &moves[i]}); err != nil {
			_ = enc.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// ReadArchive decodes an archive written by WriteArchive.
func ReadArchive(r io.Reader) (*MatchRecord, []MoveRecord, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var (
		rec   *MatchRecord
		moves []MoveRecord
		line  int
	)
	for sc.Scan() {
		line++
		var e archiveEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %v", ErrBadArchive, line, err)
		}
		switch {
		case e.Kind == entryMatch && rec == nil && e.Match != nil:
			rec = e.Match
		case e.Kind == entryMove && rec != nil && e.Move != nil:
			if e.Move.Seq != len(moves)+1 {
				return nil, nil, fmt.Errorf("%w: line %d: move seq %d", ErrBadArchive, line, e.Move.Seq)
			}
			moves = append(moves, *e.Move)
		default:
			return nil, nil, fmt.Errorf("%w: line %d: unexpected %q entry", ErrBadArchive, line, e.Kind)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, fmt.Errorf("%w: no match entry", ErrBadArchive)
	}
	return rec, moves, nil
}

// SaveArchive writes the archive of rec under dir and returns its path.
func SaveArchive(dir string, rec *MatchRecord, moves []MoveRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := ArchivePath(dir, rec.RoomID)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteArchive(f, rec, moves); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

// OpenArchive reads the archive at path.
func OpenArchive(path string) (*MatchRecord, []MoveRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadArchive(f)
}
