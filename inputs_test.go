package main

import (
	"errors"
	"io/ioutil"
	"path/filepath"

	"git.arvados.org/tiletyper.git/tilescan"
	"gopkg.in/check.v1"
)

type inputsSuite struct{}

var _ = check.Suite(&inputsSuite{})

func (s *inputsSuite) TestSeqFormat(c *check.C) {
	for _, trial := range []struct {
		path  string
		base  string
		fastq bool
		ok    bool
	}{
		{"a/b/sample.fasta", "sample", false, true},
		{"sample.fna.gz", "sample", false, true},
		{"x.fa", "x", false, true},
		{"reads_R1.fastq.gz", "reads_R1", true, true},
		{"reads.fq", "reads", true, true},
		{"galaxy.fastqsanger", "galaxy", true, true},
		{"notes.txt", "notes.txt", false, false},
	} {
		base, fastq, ok := seqFormat(trial.path)
		c.Check(base, check.Equals, trial.base, check.Commentf("%s", trial.path))
		c.Check(fastq, check.Equals, trial.fastq, check.Commentf("%s", trial.path))
		c.Check(ok, check.Equals, trial.ok, check.Commentf("%s", trial.path))
	}
}

func (s *inputsSuite) TestListDirectory(c *check.C) {
	dir := c.MkDir()
	for _, name := range []string{
		"b_R2.fastq.gz", "b_R1.fastq.gz",
		"c_1.fq", "c_2.fq",
		"d_S1_L001_R1_001.fastq",
		"lonely.fastq",
		"asm.fasta",
		"README.txt",
	} {
		c.Assert(ioutil.WriteFile(filepath.Join(dir, name), nil, 0644), check.IsNil)
	}

	samples, err := listSamples([]string{dir}, nil)
	c.Assert(err, check.IsNil)
	got := map[string]sample{}
	for _, smp := range samples {
		got[smp.Name] = smp
	}
	c.Check(samples, check.HasLen, 5)
	c.Check(got["asm"], check.DeepEquals, sample{Name: "asm", Paths: []string{filepath.Join(dir, "asm.fasta")}})
	c.Check(got["b"].Paths, check.DeepEquals, []string{filepath.Join(dir, "b_R1.fastq.gz"), filepath.Join(dir, "b_R2.fastq.gz")})
	c.Check(got["b"].Fastq, check.Equals, true)
	c.Check(got["c"].Paths, check.DeepEquals, []string{filepath.Join(dir, "c_1.fq"), filepath.Join(dir, "c_2.fq")})
	c.Check(got["d_S1_L001_R1_001"].Paths, check.HasLen, 1)
	c.Check(got["lonely"].Fastq, check.Equals, true)
}

func (s *inputsSuite) TestListFilesAndPairs(c *check.C) {
	samples, err := listSamples(
		[]string{"x/missing.fasta", "x/weird.bam"},
		[][2]string{{"p/sampleA.1.fastq", "p/sampleA.2.fastq"}})
	c.Assert(err, check.IsNil)
	c.Assert(samples, check.HasLen, 3)
	c.Check(samples[0].Name, check.Equals, "sampleA")
	c.Check(samples[0].Paths, check.DeepEquals, []string{"p/sampleA.1.fastq", "p/sampleA.2.fastq"})
	c.Check(samples[0].Fastq, check.Equals, true)
	c.Check(samples[1].Name, check.Equals, "missing")
	c.Check(samples[1].Err, check.IsNil)
	c.Check(errors.Is(samples[2].Err, tilescan.ErrUnreadableFormat), check.Equals, true)
}

func (s *inputsSuite) TestCommonSampleName(c *check.C) {
	c.Check(commonSampleName("a/s1_R1.fastq", "a/s1_R2.fastq"), check.Equals, "s1")
	c.Check(commonSampleName("s1_R1_001.fq.gz", "s1_R2_001.fq.gz"), check.Equals, "s1")
	c.Check(commonSampleName("s1.1.fq", "s1.2.fq"), check.Equals, "s1")
	c.Check(commonSampleName("left.fq", "right.fq"), check.Equals, "left")
}

func (s *inputsSuite) TestPairFlag(c *check.C) {
	var pf pairFlag
	c.Check(pf.Set("a.fq,b.fq"), check.IsNil)
	c.Check(pf.Set("c.fq"), check.NotNil)
	c.Check(pf.Set("c.fq,"), check.NotNil)
	c.Check(pf, check.DeepEquals, pairFlag{{"a.fq", "b.fq"}})
	c.Check(pf.String(), check.Equals, "a.fq,b.fq")
}
