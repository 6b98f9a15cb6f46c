package boolean

import (
	"bufio"
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/CurrySoftware/perlin/storage"
	"github.com/CurrySoftware/perlin/vbyte"
)

// MagicBytes identifies a perlin index directory.
const (
	MagicBytes    uint32 = 0x50524C4E // "PRLN"
	FormatVersion uint32 = 1

	metaFilename  = "meta"
	vocabFilename = "vocab"
)

// ErrBadMagic is returned when the meta file does not start with the
// index magic.
var ErrBadMagic = errors.New("boolean: not an index directory (bad magic)")

// UnsupportedVersionError is returned when the on-disk format version
// differs from FormatVersion.
type UnsupportedVersionError struct {
	Version uint32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("boolean: unsupported index format version %d", e.Version)
}

// CorruptedError is returned when a persisted index fails to decode. The
// detail is free-form.
type CorruptedError struct {
	Detail string
}

func (e *CorruptedError) Error() string {
	return fmt.Sprintf("boolean: corrupted index: %s", e.Detail)
}

func corruptedf(format string, args ...any) error {
	return &CorruptedError{Detail: fmt.Sprintf(format, args...)}
}

// saveMeta writes the meta file: magic, format version, page size, then
// the vbyte-coded document count.
func saveMeta(dir string, pageSize, docCount int) error {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(buf[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(pageSize))
	buf = vbyte.Append(buf, uint64(docCount))
	if err := os.WriteFile(filepath.Join(dir, metaFilename), buf, 0o644); err != nil {
		return fmt.Errorf("writing meta: %w", err)
	}
	return nil
}

func loadMeta(dir string) (pageSize, docCount int, err error) {
	raw, err := os.ReadFile(filepath.Join(dir, metaFilename))
	if err != nil {
		return 0, 0, fmt.Errorf("reading meta: %w", err)
	}
	if len(raw) < 12 {
		return 0, 0, corruptedf("meta file has %d bytes", len(raw))
	}
	if magic := binary.LittleEndian.Uint32(raw[0:4]); magic != MagicBytes {
		return 0, 0, ErrBadMagic
	}
	if version := binary.LittleEndian.Uint32(raw[4:8]); version != FormatVersion {
		return 0, 0, &UnsupportedVersionError{Version: version}
	}
	pageSize = int(binary.LittleEndian.Uint32(raw[8:12]))
	count, _, err := vbyte.Decode(raw[12:])
	if err != nil {
		return 0, 0, corruptedf("meta document count: %v", err)
	}
	return pageSize, int(count), nil
}

// saveVocab writes one record per term, already sorted by encoded term
// bytes: vbyte(term length), term bytes, vbyte(document frequency),
// vbyte(entry id).
func saveVocab[T cmp.Ordered](dir string, codec TermCodec[T], terms []T, vocab map[T]vocabEntry) error {
	f, err := os.Create(filepath.Join(dir, vocabFilename))
	if err != nil {
		return fmt.Errorf("creating vocab: %w", err)
	}
	w := bufio.NewWriter(f)
	var buf []byte
	for _, term := range terms {
		entry := vocab[term]
		termBytes := codec.EncodeTerm(term)
		buf = buf[:0]
		buf = vbyte.Append(buf, uint64(len(termBytes)))
		buf = append(buf, termBytes...)
		buf = vbyte.Append(buf, uint64(entry.docFreq))
		buf = vbyte.Append(buf, uint64(entry.entry))
		if _, err := w.Write(buf); err != nil {
			f.Close()
			return fmt.Errorf("writing vocab: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing vocab: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing vocab: %w", err)
	}
	return f.Close()
}

func loadVocab[T cmp.Ordered](dir string, codec TermCodec[T]) (map[T]vocabEntry, error) {
	f, err := os.Open(filepath.Join(dir, vocabFilename))
	if err != nil {
		return nil, fmt.Errorf("opening vocab: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)
	dec := vbyte.NewDecoder(r)
	vocab := make(map[T]vocabEntry)
	for {
		termLen, err := dec.Next()
		if err == io.EOF {
			return vocab, nil
		}
		if err != nil {
			return nil, corruptedf("vocab record: %v", err)
		}
		termBytes := make([]byte, termLen)
		if _, err := io.ReadFull(r, termBytes); err != nil {
			return nil, corruptedf("vocab term bytes: %v", err)
		}
		term, err := codec.DecodeTerm(termBytes)
		if err != nil {
			return nil, corruptedf("vocab term: %v", err)
		}
		docFreq, err := dec.Next()
		if err != nil {
			return nil, corruptedf("vocab document frequency: %v", err)
		}
		entryID, err := dec.Next()
		if err != nil {
			return nil, corruptedf("vocab entry id: %v", err)
		}
		if _, dup := vocab[term]; dup {
			return nil, corruptedf("duplicate vocab term")
		}
		vocab[term] = vocabEntry{docFreq: int(docFreq), entry: storage.EntryID(entryID)}
	}
}

// Load opens a previously persisted index directory.
func Load[T cmp.Ordered](dir string, codec TermCodec[T]) (*Index[T], error) {
	pageSize, docCount, err := loadMeta(dir)
	if err != nil {
		return nil, err
	}
	vocab, err := loadVocab(dir, codec)
	if err != nil {
		return nil, err
	}
	store, err := storage.OpenFS(dir, pageSize)
	if err != nil {
		if errors.Is(err, storage.ErrCorrupted) {
			return nil, corruptedf("%v", err)
		}
		return nil, err
	}
	for _, entry := range vocab {
		if int(entry.entry) >= store.EntryCount() {
			store.Close()
			return nil, corruptedf("vocab references entry %d of %d", entry.entry, store.EntryCount())
		}
	}
	return &Index[T]{
		codec:    codec,
		vocab:    vocab,
		store:    store,
		docCount: docCount,
		dir:      dir,
	}, nil
}

// Close releases the file handles of a file-backed index. Cursors from
// earlier queries must not be used afterwards. Closing a volatile index
// is a no-op.
func (ix *Index[T]) Close() error {
	if fsStore, ok := ix.store.(*storage.FS); ok {
		return fsStore.Close()
	}
	return nil
}
