package tilescan

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"sort"
	"strings"
	"testing"

	"git.arvados.org/tiletyper.git/scheme"
	"github.com/sirupsen/logrus/hooks/test"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type scanSuite struct{}

var _ = check.Suite(&scanSuite{})

const (
	tile100 = "GATAATGTGTCCTAAGCTCTTAACC"
	tile200 = "TTTGCCGGCCCGCAGGATTCATAAG"
)

func loadModel(c *check.C, fasta string) *scheme.Model {
	logger, _ := test.NewNullLogger()
	model, err := scheme.Load(strings.NewReader(fasta), scheme.Config{Name: "test", Logger: logger})
	c.Assert(err, check.IsNil)
	return model
}

func newMatcher(c *check.C, fasta string) (*Matcher, *test.Hook) {
	logger, hook := test.NewNullLogger()
	m, err := NewMatcher(loadModel(c, fasta), logger)
	c.Assert(err, check.IsNil)
	return m, hook
}

func readFile(c *check.C, path string) string {
	buf, err := ioutil.ReadFile(path)
	c.Assert(err, check.IsNil)
	return string(buf)
}

func rc(c *check.C, s string) string {
	r, err := scheme.ReverseComplement(s)
	c.Assert(err, check.IsNil)
	return r
}

func tileNames(m *Matcher, h HitTable) []string {
	var names []string
	for i := 0; i < h.Len(); i++ {
		names = append(names, m.Model.Tile(h.Tile(i)).Name)
	}
	sort.Strings(names)
	return names
}

func (s *scanSuite) TestFastaPositions(c *check.C) {
	m, _ := newMatcher(c, ">100-1\n"+tile100+"\n>200-2\n"+tile200+"\n")
	contig := "AAAA" + tile100 + "GG" + rc(c, tile200)
	hits, err := m.ScanFastaReader(context.Background(), "mem", strings.NewReader(">c1 description\n"+strings.ToLower(contig)+"\n"))
	c.Assert(err, check.IsNil)
	c.Assert(hits.Len(), check.Equals, 2)
	c.Check(hits.IsFastq(), check.Equals, false)

	c.Check(m.Model.Tile(hits.Tile(0)).Name, check.Equals, "100-1")
	c.Check(hits.Sequence(0), check.Equals, tile100)
	c.Check(hits.Revcomp[0], check.Equals, false)
	c.Check(hits.Contigs[0], check.Equals, "c1")
	c.Check(hits.Index[0], check.Equals, 4)
	c.Check(hits.Frequency(0), check.Equals, 1)

	c.Check(m.Model.Tile(hits.Tile(1)).Name, check.Equals, "200-2")
	c.Check(hits.Sequence(1), check.Equals, rc(c, tile200))
	c.Check(hits.Revcomp[1], check.Equals, true)
	c.Check(hits.Index[1], check.Equals, 31)

	c.Check(hits.Records, check.Equals, 1)
	c.Check(hits.Bases, check.Equals, int64(len(contig)))
}

func (s *scanSuite) TestTileAndReverseComplement(c *check.C) {
	for _, tile := range []string{tile100, tile200, "ACGTTGCAGCTTAGCCATGACCTGA"} {
		m, _ := newMatcher(c, ">5-1\n"+tile+"\n")
		hits, err := m.ScanFastaReader(context.Background(), "mem", strings.NewReader(">x\n"+tile+rc(c, tile)+"\n"))
		c.Assert(err, check.IsNil)
		c.Assert(hits.Len() >= 1, check.Equals, true)
		c.Check(m.Model.Tile(hits.Tile(0)).Name, check.Equals, "5-1")
	}
}

func (s *scanSuite) TestDegenerateTile(c *check.C) {
	// R at index 12 covers both the A and G alleles
	m, _ := newMatcher(c, ">100-1\nGATAATGTGTCCRAAGCTCTTAACC\n>101-1\nGATAATXTGTCCTAAGCTCTTAACC\n")
	c.Check(m.Patterns(), check.Equals, 4)
	input := ">x\nGATAATGTGTCCAAAGCTCTTAACCNNGATAATGTGTCCGAAGCTCTTAACCNNGATAATGTGTCCTAAGCTCTTAACC\n"
	hits, err := m.ScanFastaReader(context.Background(), "mem", strings.NewReader(input))
	c.Assert(err, check.IsNil)
	c.Check(tileNames(m, hits), check.DeepEquals, []string{"100-1", "100-1"})
	c.Check(hits.Seqs, check.DeepEquals, []string{"GATAATGTGTCCAAAGCTCTTAACC", "GATAATGTGTCCGAAGCTCTTAACC"})
}

func (s *scanSuite) TestOverlappingTiles(c *check.C) {
	m, _ := newMatcher(c, ">1-1\nACGTACGTAC\n>negative1-1\nCGTACGTA\n>2-1.1\nGTACGTACGG\n")
	hits, err := m.ScanFastaReader(context.Background(), "mem", strings.NewReader(">x\nACGTACGTACGG\n"))
	c.Assert(err, check.IsNil)
	// CGTACGTA at 1, and its reverse complement TACGTACG at 3
	c.Check(tileNames(m, hits), check.DeepEquals, []string{"1-1", "2-1.1", "negative1-1", "negative1-1"})
}

func (s *scanSuite) TestFastaFixture(c *check.C) {
	m, _ := newMatcher(c, readFile(c, "../testdata/scheme.fasta"))
	hits, err := m.ScanFasta(context.Background(), "../testdata/st_2.1.1.fasta")
	c.Assert(err, check.IsNil)
	c.Check(tileNames(m, hits), check.DeepEquals, []string{
		"200-2", "201-2", "210-2.1", "211-2.1", "230-2.1.1", "231-2.1.1",
		"negative100-1", "negative101-1", "negative220-2.2", "negative221-2.2",
		"negative240-2.1.2", "negative241-2.1.2",
	})
	contigs := map[string]bool{}
	revcomp := 0
	for i := 0; i < hits.Len(); i++ {
		contigs[hits.Contigs[i]] = true
		if hits.Revcomp[i] {
			revcomp++
		}
	}
	c.Check(contigs, check.DeepEquals, map[string]bool{"contig1": true, "contig2": true})
	c.Check(revcomp > 0, check.Equals, true)
	c.Check(hits.Records, check.Equals, 2)
}

func (s *scanSuite) TestFastqFixture(c *check.C) {
	m, _ := newMatcher(c, readFile(c, "../testdata/scheme.fasta"))
	hits, err := m.ScanFastq(context.Background(), "../testdata/st_2.1.1_R1.fastq", "../testdata/st_2.1.1_R2.fastq")
	c.Assert(err, check.IsNil)
	c.Check(hits.IsFastq(), check.Equals, true)
	c.Assert(hits.Len(), check.Equals, 13)
	for i := 0; i < hits.Len(); i++ {
		tile := m.Model.Tile(hits.Tile(i))
		if tile.Name == "negative210-2.1" {
			c.Check(hits.Frequency(i), check.Equals, 1)
		} else {
			c.Check(hits.Frequency(i), check.Equals, 30, check.Commentf("%s", tile.Name))
		}
		c.Check(hits.Sequence(i), check.Equals, tile.Seq)
	}
	c.Check(hits.Records, check.Equals, 12*30+1)
	// N is a nucleotide code, so the read flanks are not counted
	c.Check(hits.NonNucleotide, check.Equals, 0)
}

func (s *scanSuite) TestFastqCollapsesOrientations(c *check.C) {
	m, _ := newMatcher(c, ">100-1\n"+tile100+"\n")
	var fq strings.Builder
	for i := 0; i < 5; i++ {
		read := tile100
		if i%2 == 1 {
			read = rc(c, tile100)
		}
		fmt.Fprintf(&fq, "@r%d\nTT%sTT\n+\n%s\n", i, read, strings.Repeat("I", len(read)+4))
	}
	hits, err := m.ScanFastqReaders(context.Background(), "mem", strings.NewReader(fq.String()))
	c.Assert(err, check.IsNil)
	c.Assert(hits.Len(), check.Equals, 1)
	c.Check(hits.Sequence(0), check.Equals, tile100)
	c.Check(hits.Frequency(0), check.Equals, 5)
}

func (s *scanSuite) TestNonNucleotideWarning(c *check.C) {
	m, hook := newMatcher(c, ">100-1\n"+tile100+"\n")
	hits, err := m.ScanFastaReader(context.Background(), "mem", strings.NewReader(">c1\n"+tile100+"**ACGT\n>c2\nACGT\n"))
	c.Assert(err, check.IsNil)
	c.Check(hits.Len(), check.Equals, 1)
	c.Check(hits.NonNucleotide, check.Equals, 2)
	c.Assert(hook.Entries, check.HasLen, 1)
	c.Check(hook.LastEntry().Data["record"], check.Equals, "c1")
	c.Check(hook.LastEntry().Message, check.Equals, "ignoring 2 non-nucleotide characters")
}

func (s *scanSuite) TestInputErrors(c *check.C) {
	m, _ := newMatcher(c, ">100-1\n"+tile100+"\n")
	_, err := m.ScanFasta(context.Background(), "../testdata/does-not-exist.fasta")
	c.Check(errors.Is(err, ErrNotFound), check.Equals, true)
	_, err = m.ScanFastq(context.Background(), "../testdata/st_2.1.1_R1.fastq", "../testdata/does-not-exist.fastq")
	c.Check(errors.Is(err, ErrNotFound), check.Equals, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.ScanFastq(ctx, "../testdata/st_2.1.1_R1.fastq")
	c.Check(err, check.Equals, context.Canceled)
}
