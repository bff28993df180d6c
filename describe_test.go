package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"git.arvados.org/tiletyper.git/scheme"
	"gopkg.in/check.v1"
)

type describeSuite struct{}

var _ = check.Suite(&describeSuite{})

func (s *describeSuite) TestDescribe(c *check.C) {
	fasta := filepath.Join(c.MkDir(), "copy.fasta")
	var stdout bytes.Buffer
	exited := (&describeScheme{}).RunCommand("describe-scheme", []string{"-scheme", "testdata/scheme.fasta", "-fasta", fasta}, &bytes.Buffer{}, &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)

	sections := strings.Split(stdout.String(), "\n\n")
	c.Assert(sections, check.HasLen, 2)
	counts := strings.Split(sections[0], "\n")
	c.Check(counts[0], check.Matches, `# scheme scheme version [0-9a-f]+: 24 tiles, 48 concrete sequences`)
	c.Check(counts[1:], check.DeepEquals, []string{
		"subtype\tn_tiles_matching_all_expected\tn_tiles_matching_positive_expected\tn_tiles_matching_subtype_expected\trefpositions",
		"1\t12\t2\t2\t100,101",
		"2\t12\t2\t2\t200,201",
		"2.1\t12\t4\t2\t210,211",
		"2.1.1\t12\t6\t2\t230,231",
		"2.1.2\t12\t6\t2\t240,241",
		"2.2\t12\t4\t2\t220,221",
	})

	pairs := parseTSV(c, sections[1])
	c.Assert(pairs, check.HasLen, 12)
	c.Check(pairs[0]["refposition"], check.Equals, "100")
	c.Check(pairs[0]["positive_tile"], check.Equals, "100-1")
	c.Check(pairs[0]["negative_tile"], check.Equals, "negative100-1")
	c.Check(pairs[0]["variants"], check.Equals, "13T>G")
	for _, pair := range pairs {
		c.Check(pair["variants"], check.Matches, `[0-9].*`, check.Commentf("%v", pair))
	}

	model, err := scheme.LoadFile(fasta, scheme.Config{})
	c.Assert(err, check.IsNil)
	c.Check(model.Tiles, check.HasLen, 24)
	c.Check(model.Name, check.Equals, "copy")
}

func (s *describeSuite) TestNoSNPs(c *check.C) {
	var stdout bytes.Buffer
	exited := (&describeScheme{}).RunCommand("describe-scheme", []string{"-scheme", "testdata/scheme.fasta", "-snps=false"}, &bytes.Buffer{}, &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	c.Check(strings.Count(stdout.String(), "\n"), check.Equals, 8)

	var stderr bytes.Buffer
	exited = (&describeScheme{}).RunCommand("describe-scheme", []string{"-scheme", "testdata/scheme.fasta", "extra"}, &bytes.Buffer{}, &stdout, &stderr)
	c.Check(exited, check.Equals, 2)
	exited = (&describeScheme{}).RunCommand("describe-scheme", []string{"-scheme", "testdata/scheme.fasta", "-max-degenerate-kmers", "47"}, &bytes.Buffer{}, &stdout, &stderr)
	c.Check(exited, check.Equals, 1)
}
