package main

import (
	"errors"
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"

	"git.arvados.org/tiletyper.git/resolve"
	"git.arvados.org/tiletyper.git/scheme"
	"gopkg.in/check.v1"
)

type configSuite struct{}

var _ = check.Suite(&configSuite{})

func (s *configSuite) TearDownTest(c *check.C) {
	os.Unsetenv("TILETYPER_MIN_FREQ")
}

func parseParamFlags(c *check.C, args ...string) *flag.FlagSet {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	paramFlags(flags)
	c.Assert(flags.Parse(args), check.IsNil)
	return flags
}

func (s *configSuite) TestDefaults(c *check.C) {
	p, err := loadParams(nil, "", parseParamFlags(c))
	c.Assert(err, check.IsNil)
	c.Check(p, check.DeepEquals, resolve.DefaultParams())

	b, _ := scheme.LookupBuiltin("enteritidis")
	p, err = loadParams(b, "", nil)
	c.Assert(err, check.IsNil)
	c.Check(p.LowCoverageThreshold, check.Equals, 50.0)
	c.Check(p.MinFreq, check.Equals, 8)
}

func (s *configSuite) TestLayering(c *check.C) {
	cfg := filepath.Join(c.MkDir(), "params.yaml")
	c.Assert(ioutil.WriteFile(cfg, []byte("min_freq: 6\nmax_missing_fraction: 0.1\nlow_coverage_threshold: 15\n"), 0644), check.IsNil)

	p, err := loadParams(nil, cfg, parseParamFlags(c))
	c.Assert(err, check.IsNil)
	c.Check(p.MinFreq, check.Equals, 6)
	c.Check(p.MaxMissingFraction, check.Equals, 0.1)
	c.Check(p.LowCoverageThreshold, check.Equals, 15.0)
	c.Check(p.MaxFreq, check.Equals, 1000)

	// config file beats built-in overrides
	b, _ := scheme.LookupBuiltin("enteritidis")
	p, err = loadParams(b, cfg, nil)
	c.Assert(err, check.IsNil)
	c.Check(p.LowCoverageThreshold, check.Equals, 15.0)

	os.Setenv("TILETYPER_MIN_FREQ", "5")
	p, err = loadParams(nil, cfg, parseParamFlags(c))
	c.Assert(err, check.IsNil)
	c.Check(p.MinFreq, check.Equals, 5)

	p, err = loadParams(nil, cfg, parseParamFlags(c, "-min-freq", "4", "-max-missing-fraction", "0.25"))
	c.Assert(err, check.IsNil)
	c.Check(p.MinFreq, check.Equals, 4)
	c.Check(p.MaxMissingFraction, check.Equals, 0.25)
	c.Check(p.LowCoverageThreshold, check.Equals, 15.0)
}

func (s *configSuite) TestErrors(c *check.C) {
	dir := c.MkDir()
	_, err := loadParams(nil, filepath.Join(dir, "missing.yaml"), nil)
	c.Check(err, check.ErrorMatches, `config file: .*missing.yaml.*`)

	bad := filepath.Join(dir, "bad.yaml")
	c.Assert(ioutil.WriteFile(bad, []byte("min_freq: lots\n"), 0644), check.IsNil)
	_, err = loadParams(nil, bad, nil)
	c.Check(errors.Is(err, resolve.ErrInvalidParams), check.Equals, true)

	os.Setenv("TILETYPER_MIN_FREQ", "2000")
	_, err = loadParams(nil, "", nil)
	c.Check(errors.Is(err, resolve.ErrInvalidParams), check.Equals, true)
	c.Check(err, check.ErrorMatches, `.*min_freq=2000 > max_freq=1000`)
}
