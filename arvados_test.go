package main

import (
	"flag"

	"gopkg.in/check.v1"
)

type arvadosSuite struct{}

var _ = check.Suite(&arvadosSuite{})

const (
	readsColl  = "zzzzz-4zz18-aaaaaaaaaaaaaaa"
	schemeColl = "zzzzz-4zz18-bbbbbbbbbbbbbbb"
	pdh        = "0123456789abcdef0123456789abcdef+1234"
)

func (s *arvadosSuite) TestTranslatePaths(c *check.C) {
	runner := &arvadosContainerRunner{}
	a := "/keep/by_id/" + readsColl + "/x/a.fasta"
	b := "/keep/" + pdh + "/b.fastq.gz"
	dash, empty := "-", ""
	c.Assert(runner.TranslatePaths(&a, &b, &dash, &empty), check.IsNil)
	c.Check(a, check.Equals, "/mnt/"+readsColl+"/x/a.fasta")
	c.Check(b, check.Equals, "/mnt/"+pdh+"/b.fastq.gz")
	c.Check(dash, check.Equals, "-")
	c.Check(runner.Mounts, check.DeepEquals, map[string]string{
		readsColl: "/mnt/" + readsColl,
		pdh:       "/mnt/" + pdh,
	})

	local := "testdata/st_2.1.1.fasta"
	c.Check(runner.TranslatePaths(&local), check.ErrorMatches, `cannot find uuid in path: .*`)
}

func (s *arvadosSuite) TestSubtypeContainerArgs(c *check.C) {
	cmd := &subtyper{
		schemeArg:  "heidelberg",
		schemeDir:  "/keep/by_id/" + schemeColl + "/schemes",
		outputFile: "-",
		threads:    2,
		pairs:      pairFlag{{"/keep/by_id/" + readsColl + "/s_R1.fq", "/keep/by_id/" + readsColl + "/s_R2.fq"}},
	}
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	paramFlags(flags)
	c.Assert(flags.Parse([]string{"-min-freq", "5", "/keep/by_id/" + readsColl + "/a.fasta"}), check.IsNil)

	runner, err := cmd.containerRunner(flags, 700)
	c.Assert(err, check.IsNil)
	c.Check(runner.Args, check.DeepEquals, []string{
		"subtype", "-threads", "2",
		"-scheme-dir", "/mnt/" + schemeColl + "/schemes",
		"-scheme", "heidelberg",
		"-min-freq=5",
		"-paired", "/mnt/" + readsColl + "/s_R1.fq,/mnt/" + readsColl + "/s_R2.fq",
		"-o", "/mnt/output/summary.tsv",
		"-tiles", "/mnt/output/tiles.tsv",
		"-json", "/mnt/output/results.json",
		"/mnt/" + readsColl + "/a.fasta",
	})
	c.Check(runner.Mounts, check.HasLen, 2)

	req := runner.containerRequest("zzzzz-4zz18-ccccccccccccccc")
	c.Check(req["container_image"], check.Equals, "tiletyper-runtime")
	c.Check(req["priority"], check.Equals, 700)
	c.Check(req["command"].([]string)[0], check.Equals, "/mnt/cmd/tiletyper")
	mounts := req["mounts"].(map[string]map[string]interface{})
	c.Check(mounts, check.HasLen, 4)
	c.Check(mounts["/mnt/"+readsColl]["uuid"], check.Equals, readsColl)
	c.Check(mounts["/mnt/output"]["writable"], check.Equals, true)
}

func (s *arvadosSuite) TestSubtypeContainerLocalInput(c *check.C) {
	cmd := &subtyper{schemeArg: "testdata/scheme.fasta", outputFile: "-", threads: 1}
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	c.Assert(flags.Parse([]string{"/keep/by_id/" + readsColl + "/a.fasta"}), check.IsNil)
	_, err := cmd.containerRunner(flags, 1)
	c.Check(err, check.ErrorMatches, `cannot find uuid in path: "testdata/scheme.fasta"`)
}
