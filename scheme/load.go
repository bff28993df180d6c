package scheme

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// DefaultMaxDegenerateKmers bounds the number of concrete tile
// variants (forward and reverse complement) a scheme may expand to.
const DefaultMaxDegenerateKmers = 100000

// Config controls scheme loading.
type Config struct {
	// Scheme name reported in results. LoadFile defaults it to the
	// file's base name.
	Name string
	// Scheme version. If empty, the first 12 hex digits of the
	// BLAKE2b-256 digest of the scheme content are used.
	Version string
	// Maximum total number of concrete variants, counting reverse
	// complements. Zero means DefaultMaxDegenerateKmers.
	MaxDegenerateKmers int
	Logger             logrus.FieldLogger
}

// LoadFile loads a (possibly gzip-compressed) scheme FASTA file.
func LoadFile(path string, cfg Config) (*Model, error) {
	f, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer f.Close()
	if cfg.Name == "" {
		cfg.Name = nameFromPath(path)
	}
	model, err := Load(f, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return model, nil
}

// Load parses a FASTA tile panel and builds the scheme model.
func Load(rdr io.Reader, cfg Config) (*Model, error) {
	if cfg.MaxDegenerateKmers <= 0 {
		cfg.MaxDegenerateKmers = DefaultMaxDegenerateKmers
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	hash, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(io.TeeReader(rdr, hash))
	if _, err := br.Peek(1); err == io.EOF {
		return nil, ErrEmptyTiles
	} else if err != nil {
		return nil, err
	}
	fr, err := fastx.NewReaderFromIO(seq.Unlimit, br, fastx.DefaultIDRegexp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}
	var tiles []Tile
	for {
		rec, err := fr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
		}
		tile, err := parseTile(string(rec.ID), rec.Seq.Seq)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, tile)
	}
	if _, err := io.Copy(ioutil.Discard, br); err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = hex.EncodeToString(hash.Sum(nil))[:12]
	}
	return newModel(cfg, tiles)
}

func parseTile(header string, sequence []byte) (Tile, error) {
	refpos, st, positive, err := ParseTileName(header)
	if err != nil {
		return Tile{}, err
	}
	s := bytes.ToUpper(bytes.TrimSpace(sequence))
	if len(s) == 0 {
		return Tile{}, fmt.Errorf("%w: tile %q has no sequence", ErrMalformed, header)
	}
	for _, b := range s {
		if !IsIUPAC(b) {
			return Tile{}, fmt.Errorf("%w: tile %q has invalid base %q", ErrMalformed, header, b)
		}
	}
	return Tile{
		Name:     header,
		RefPos:   refpos,
		Subtype:  st,
		Positive: positive,
		Seq:      string(s),
	}, nil
}

func nameFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".gz")
	for _, ext := range []string{".fasta", ".fas", ".fna", ".fa"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}
