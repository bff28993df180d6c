package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kshedden/gonpy"
	"gopkg.in/check.v1"
)

type exportSuite struct{}

var _ = check.Suite(&exportSuite{})

var st211Tiles = []string{
	"200-2", "201-2", "210-2.1", "211-2.1", "230-2.1.1", "231-2.1.1",
	"negative100-1", "negative101-1", "negative220-2.2", "negative221-2.2",
	"negative240-2.1.2", "negative241-2.1.2",
}

func readLabels(c *check.C, path string) map[string]int {
	buf, err := ioutil.ReadFile(path)
	c.Assert(err, check.IsNil)
	idx := map[string]int{}
	for _, line := range strings.Split(strings.TrimSuffix(string(buf), "\n"), "\n") {
		fields := strings.Split(line, "\t")
		c.Assert(fields, check.HasLen, 5)
		i, err := strconv.Atoi(fields[0])
		c.Assert(err, check.IsNil)
		idx[fields[1]] = i
	}
	return idx
}

func (s *exportSuite) TestFastaAndFastqToNumpy(c *check.C) {
	tmpdir := c.MkDir()
	for _, inBand := range []bool{false, true} {
		labels := filepath.Join(tmpdir, "labels.tsv")
		samples := filepath.Join(tmpdir, "samples.tsv")
		var output bytes.Buffer
		exited := (&exportNumpy{}).RunCommand("export-numpy", []string{
			"-scheme", "testdata/scheme.fasta",
			"-labels", labels,
			"-samples", samples,
			"-in-band=" + strconv.FormatBool(inBand),
			"testdata/st_2.1.1.fasta",
			"testdata/st_2.1.1_R1.fastq",
		}, &bytes.Buffer{}, &output, os.Stderr)
		c.Assert(exited, check.Equals, 0)

		npy, err := gonpy.NewReader(&output)
		c.Assert(err, check.IsNil)
		c.Check(npy.Shape, check.DeepEquals, []int{2, 24})
		counts, err := npy.GetUint16()
		c.Assert(err, check.IsNil)
		c.Assert(counts, check.HasLen, 48)

		idx := readLabels(c, labels)
		c.Assert(idx, check.HasLen, 24)
		expect := make([]uint16, 48)
		for _, name := range st211Tiles {
			expect[idx[name]] = 1
			expect[24+idx[name]] = 15
		}
		if !inBand {
			expect[24+idx["negative210-2.1"]] = 1
		}
		c.Check(counts, check.DeepEquals, expect, check.Commentf("in-band=%v", inBand))

		buf, err := ioutil.ReadFile(samples)
		c.Assert(err, check.IsNil)
		c.Check(string(buf), check.Equals, "0\tst_2.1.1\ttestdata/st_2.1.1.fasta\n1\tst_2.1.1_R1\ttestdata/st_2.1.1_R1.fastq\n")
	}
}

func (s *exportSuite) TestMissingInputRow(c *check.C) {
	var output bytes.Buffer
	exited := (&exportNumpy{}).RunCommand("export-numpy", []string{
		"-scheme", "testdata/scheme.fasta",
		"testdata/nope.fasta",
		"testdata/st_2.1.1.fasta",
	}, &bytes.Buffer{}, &output, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	npy, err := gonpy.NewReader(&output)
	c.Assert(err, check.IsNil)
	c.Check(npy.Shape, check.DeepEquals, []int{2, 24})
	counts, err := npy.GetUint16()
	c.Assert(err, check.IsNil)
	var sums [2]int
	for i, n := range counts {
		sums[i/24] += int(n)
	}
	c.Check(sums, check.Equals, [2]int{0, 12})
}

func (s *exportSuite) TestUsage(c *check.C) {
	var stderr bytes.Buffer
	exited := (&exportNumpy{}).RunCommand("export-numpy", []string{"-scheme", "testdata/scheme.fasta"}, &bytes.Buffer{}, &bytes.Buffer{}, &stderr)
	c.Check(exited, check.Equals, 2)
	c.Check(stderr.String(), check.Matches, `usage: export-numpy .*\n`)
}
